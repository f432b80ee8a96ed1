package controller

import (
	"docvault-be/internal/dto"
	"docvault-be/internal/pkg/serverutils"
	"docvault-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDialogueController interface {
	RegisterRoutes(r fiber.Router)
	Turn(ctx *fiber.Ctx) error
	ResetSession(ctx *fiber.Ctx) error
}

type dialogueController struct {
	dialogueService service.IDialogueService
}

func NewDialogueController(dialogueService service.IDialogueService) IDialogueController {
	return &dialogueController{
		dialogueService: dialogueService,
	}
}

func (c *dialogueController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/dialogue/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("turn", c.Turn)
	h.Delete("session/:conversation_id", c.ResetSession)
}

func (c *dialogueController) Turn(ctx *fiber.Ctx) error {
	partyIdStr, _ := ctx.Locals("party_id").(string)
	partyId, err := uuid.Parse(partyIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid party identity")
	}

	var req dto.TurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.dialogueService.HandleTurn(ctx.Context(), partyId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process turn", res))
}

func (c *dialogueController) ResetSession(ctx *fiber.Ctx) error {
	conversationId := ctx.Params("conversation_id")
	if conversationId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Missing conversation id")
	}

	res, err := c.dialogueService.ResetSession(ctx.Context(), conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reset session", res))
}
