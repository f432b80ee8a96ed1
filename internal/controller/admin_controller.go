package controller

import (
	"docvault-be/internal/dto"
	"docvault-be/internal/pkg/serverutils"
	"docvault-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	CreateOrganization(ctx *fiber.Ctx) error
	ListOrganizations(ctx *fiber.Ctx) error
	CreateParty(ctx *fiber.Ctx) error
	AddMember(ctx *fiber.Ctx) error
	RegisterDocument(ctx *fiber.Ctx) error
}

type adminController struct {
	adminService service.IAdminService
}

func NewAdminController(adminService service.IAdminService) IAdminController {
	return &adminController{
		adminService: adminService,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Use(serverutils.AdminMiddleware)
	h.Post("organization", c.CreateOrganization)
	h.Get("organization", c.ListOrganizations)
	h.Post("party", c.CreateParty)
	h.Post("member", c.AddMember)
	h.Post("document", c.RegisterDocument)
}

func (c *adminController) CreateOrganization(ctx *fiber.Ctx) error {
	var req dto.CreateOrganizationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.CreateOrganization(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create organization", res))
}

func (c *adminController) ListOrganizations(ctx *fiber.Ctx) error {
	res, err := c.adminService.ListOrganizations(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list organizations", res))
}

func (c *adminController) CreateParty(ctx *fiber.Ctx) error {
	var req dto.CreatePartyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.CreateParty(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create party", res))
}

func (c *adminController) AddMember(ctx *fiber.Ctx) error {
	var req dto.AddMemberRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.AddMember(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success add member", res))
}

func (c *adminController) RegisterDocument(ctx *fiber.Ctx) error {
	partyIdStr, _ := ctx.Locals("party_id").(string)
	partyId, err := uuid.Parse(partyIdStr)
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid party identity")
	}

	var req dto.RegisterDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.adminService.RegisterDocument(ctx.Context(), partyId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success register document", res))
}
