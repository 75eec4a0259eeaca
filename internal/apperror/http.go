package apperror

import "github.com/gofiber/fiber/v2"

func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

// Fiber converts err into the error value returned from handlers.
func Fiber(err error) *fiber.Error {
	if KindOf(err) == KindPersistence {
		return fiber.NewError(fiber.StatusInternalServerError, "unexpected storage error")
	}
	return fiber.NewError(Status(err), err.Error())
}
