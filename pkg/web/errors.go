package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// Problem types returned by the webhook endpoint.
const (
	problemValidation       = "validation_error"
	problemInvalidSignature = "invalid_signature"
	problemInternal         = "internal_error"
)

func writeProblem(c fiber.Ctx, problem *problems.DefaultProblem) error {
	return c.Status(problem.Status).JSON(problem)
}

func badRequest(c fiber.Ctx, detail string) error {
	return writeProblem(c, problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType(problemValidation).
		WithDetail(detail))
}

func unauthorized(c fiber.Ctx, detail string) error {
	return writeProblem(c, problems.NewStatusProblem(fiber.StatusUnauthorized).
		WithInstance(c.Path()).
		WithType(problemInvalidSignature).
		WithDetail(detail))
}

// internalError hides err from the caller; it is logged by the handler.
func internalError(c fiber.Ctx) error {
	return writeProblem(c, problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType(problemInternal).
		WithDetail("the delivery could not be queued"))
}
