package guidanceauth

import (
	"strings"

	"github.com/Abraxas-365/compass/guidance"
	"github.com/Abraxas-365/compass/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "bearer"
	accessLocalsKey     = "plan_access"
)

// Middleware validates the Bearer token and stores the granted access in
// the request context.
func Middleware(tokens *TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(authorizationHeader)
		if header == "" {
			return ErrMissingToken()
		}

		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], bearerPrefix) {
			return ErrInvalidToken().
				WithDetail("reason", "expected Bearer token")
		}

		access, err := tokens.VerifyToken(fields[1])
		if err != nil {
			return ErrInvalidToken().
				WithDetail("reason", err.Error())
		}

		c.Locals(accessLocalsKey, access)
		return c.Next()
	}
}

// GetPlanAccess returns the access stored by Middleware
func GetPlanAccess(c *fiber.Ctx) (*PlanAccess, bool) {
	access, ok := c.Locals(accessLocalsKey).(*PlanAccess)
	return access, ok
}

// RequirePlanAccess checks that the token grants access to the given plan
func RequirePlanAccess(c *fiber.Ctx, planID kernel.PlanID) error {
	access, ok := GetPlanAccess(c)
	if !ok {
		return ErrMissingToken()
	}
	if access.PlanID != planID {
		return guidance.ErrPlanAccessDenied().
			WithDetail("plan_id", planID)
	}
	return nil
}

// RequireJobAccess checks that the token grants access to the given job
func RequireJobAccess(c *fiber.Ctx, jobID kernel.JobID) error {
	access, ok := GetPlanAccess(c)
	if !ok {
		return ErrMissingToken()
	}
	if access.JobID != jobID {
		return guidance.ErrPlanAccessDenied().
			WithDetail("job_id", jobID)
	}
	return nil
}
