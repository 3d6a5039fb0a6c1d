package guidanceauth

import (
	"fmt"
	"time"

	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is how long a plan access token stays valid
const DefaultTokenTTL = 7 * 24 * time.Hour

// PlanAccess is the decoded token payload. A token grants access to one
// plan and, while generation is still running, its job.
type PlanAccess struct {
	PlanID kernel.PlanID
	JobID  kernel.JobID
}

// TokenService issues and verifies plan-scoped access tokens. Plans are
// anonymous, so the token returned at submission is the only credential
// that can read the resulting plan.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. The secret must be at least 32
// bytes.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// IssueToken creates a signed token granting access to a job and the plan
// it will produce.
func (s *TokenService) IssueToken(jobID kernel.JobID, planID kernel.PlanID) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"job_id": jobID.String(),
		"iat":    now.Unix(),
		"exp":    now.Add(s.ttl).Unix(),
	}
	if !planID.IsEmpty() {
		claims["plan_id"] = planID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates a token and returns the access it grants
func (s *TokenService) VerifyToken(tokenString string) (*PlanAccess, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	access := &PlanAccess{}
	if jobID, ok := claims["job_id"].(string); ok {
		access.JobID = kernel.JobID(jobID)
	}
	if planID, ok := claims["plan_id"].(string); ok {
		access.PlanID = kernel.PlanID(planID)
	}
	if access.JobID.IsEmpty() && access.PlanID.IsEmpty() {
		return nil, fmt.Errorf("token carries no plan or job claim")
	}
	return access, nil
}
