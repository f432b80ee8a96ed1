package controller

import (
	"docvault-be/internal/pkg/serverutils"
	"docvault-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	GetUrl(ctx *fiber.Ctx) error
}

type documentController struct {
	documentService service.IDocumentService
}

func NewDocumentController(documentService service.IDocumentService) IDocumentController {
	return &documentController{
		documentService: documentService,
	}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/document/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get(":id/url", c.GetUrl)
}

func (c *documentController) GetUrl(ctx *fiber.Ctx) error {
	partyIdStr, _ := ctx.Locals("party_id").(string)
	partyId, err := uuid.Parse(partyIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid party identity")
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid document id")
	}

	res, err := c.documentService.GetDocumentURL(ctx.Context(), partyId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get document url", res))
}
