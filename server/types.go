package server

import (
	"time"

	"github.com/high-horse/fingerprint-server/minutiae"
	"github.com/high-horse/fingerprint-server/registry"
)

type MatchRequest struct {
	ProbeImage     string `json:"probe_image"`
	CandidateImage string `json:"candidate_image"`
}

type MatchResponse struct {
	Match     bool   `json:"is_match"`
	Count     int    `json:"count"`
	Threshold int    `json:"threshold"`
	Elapsed   string `json:"elapsed"`
}

type EnrollRequest struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

type VerifyRequest struct {
	Image string `json:"image"`
}

type VerifyResponse struct {
	registry.Verification
	Elapsed string `json:"elapsed"`
}

type TemplateResponse struct {
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Enrolled time.Time          `json:"enrolled"`
	Minutiae []minutiae.Minutia `json:"minutiae"`
	// Template is the stored blob, base64 encoded by encoding/json.
	Template []byte `json:"template"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
