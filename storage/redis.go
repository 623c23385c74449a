package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Redis is a Store keeping each record in a hash and the insertion order in
// a list of codes.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

func NewRedis(opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address is empty")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &Redis{rdb: rdb, prefix: opts.Prefix}, nil
}

func (s *Redis) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Redis) orderKey() string { return s.prefix + "order" }

func (s *Redis) recordKey(code string) string { return s.prefix + "record:" + code }

func (s *Redis) Store(ctx context.Context, r Record) error {
	if err := validate(r); err != nil {
		return err
	}
	key := s.recordKey(r.Code)
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"code", r.Code,
				"name", r.Name,
				"template", r.Template,
				"enrolled", r.Enrolled.Format(time.RFC3339Nano),
			)
			if n == 0 {
				pipe.RPush(ctx, s.orderKey(), r.Code)
			}
			return nil
		})
		return err
	}, key)
	if err != nil {
		return fmt.Errorf("redis store %s: %w", r.Code, err)
	}
	return nil
}

func (s *Redis) Load(ctx context.Context, code string) (Record, error) {
	fields, err := s.rdb.HGetAll(ctx, s.recordKey(code)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("redis load %s: %w", code, err)
	}
	if len(fields) == 0 {
		return Record{}, ErrNotFound
	}
	return fromHash(fields)
}

func (s *Redis) LoadAll(ctx context.Context) ([]Record, error) {
	codes, err := s.rdb.LRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load all: %w", err)
	}
	cmds := make([]*redis.MapStringStringCmd, len(codes))
	_, err = s.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, code := range codes {
			cmds[i] = pipe.HGetAll(ctx, s.recordKey(code))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis load all: %w", err)
	}

	records := make([]Record, 0, len(codes))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		r, err := fromHash(fields)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *Redis) Delete(ctx context.Context, code string) error {
	n, err := s.rdb.Del(ctx, s.recordKey(code)).Result()
	if err != nil {
		return fmt.Errorf("redis delete %s: %w", code, err)
	}
	if err := s.rdb.LRem(ctx, s.orderKey(), 0, code).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", code, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Redis) Close() error {
	return s.rdb.Close()
}

func fromHash(fields map[string]string) (Record, error) {
	r := Record{
		Code:     fields["code"],
		Name:     fields["name"],
		Template: []byte(fields["template"]),
	}
	if v := fields["enrolled"]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Record{}, fmt.Errorf("record %s: bad enrolled time: %w", r.Code, err)
		}
		r.Enrolled = t
	}
	return r, nil
}
