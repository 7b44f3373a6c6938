package entity

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// RejectReason says why a refresh attempt was refused.
type RejectReason string

const (
	RejectMissing     RejectReason = "missing"
	RejectInvalid     RejectReason = "invalid"
	RejectExpired     RejectReason = "expired"
	RejectUnknownUser RejectReason = "unknown_user"
	RejectSuperseded  RejectReason = "superseded"
)

func (r RejectReason) Message() string {
	switch r {
	case RejectMissing:
		return "Refresh token is required"
	case RejectExpired:
		return "Refresh token has expired"
	case RejectSuperseded:
		return "Refresh token is expired or used"
	default:
		return "Invalid refresh token"
	}
}

// RefreshResult is either Rotated or Rejected.
type RefreshResult interface {
	refreshResult()
}

// Rotated carries the freshly issued pair. The presented token is no longer
// accepted.
type Rotated struct {
	Tokens TokenPair
}

// Rejected leaves stored state untouched.
type Rejected struct {
	Reason RejectReason
}

func (Rotated) refreshResult()  {}
func (Rejected) refreshResult() {}
