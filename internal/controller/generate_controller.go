// FILE: internal/controller/generate_controller.go
package controller

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ryounan4/Cramify/internal/dto"
	"github.com/ryounan4/Cramify/internal/entity"
	"github.com/ryounan4/Cramify/internal/pkg/serverutils"
	"github.com/ryounan4/Cramify/internal/repository/memory"
	"github.com/ryounan4/Cramify/internal/service"
)

type IGenerateController interface {
	RegisterRoutes(r fiber.Router)
	SelectFiles(ctx *fiber.Ctx) error
	Generate(ctx *fiber.Ctx) error
	Dismiss(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
	DownloadArtifact(ctx *fiber.Ctx) error
}

type generateController struct {
	service   service.IGenerateService
	sessions  service.ISessionService
	artifacts *memory.ArtifactRepository
}

func NewGenerateController(generateService service.IGenerateService, sessions service.ISessionService, artifacts *memory.ArtifactRepository) IGenerateController {
	return &generateController{
		service:   generateService,
		sessions:  sessions,
		artifacts: artifacts,
	}
}

func (c *generateController) RegisterRoutes(r fiber.Router) {
	r.Put("/files", serverutils.FormCookieMiddleware, c.SelectFiles)
	r.Post("/generate", serverutils.FormCookieMiddleware, serverutils.OptionalJwtMiddleware, c.Generate)
	r.Post("/generate/dismiss", serverutils.FormCookieMiddleware, c.Dismiss)
	r.Post("/reset", serverutils.FormCookieMiddleware, c.Reset)
	r.Get("/state", serverutils.FormCookieMiddleware, c.State)
	r.Get("/artifacts/:id", c.DownloadArtifact)
}

// SelectFiles replaces the form's selected file set with the uploaded
// multipart parts (field name "files").
func (c *generateController) SelectFiles(ctx *fiber.Ctx) error {
	formID := serverutils.FormID(ctx)

	multipartForm, err := ctx.MultipartForm()
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Multipart body is required"))
	}

	parts := multipartForm.File["files"]
	files := make([]entity.SelectedFile, 0, len(parts))
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Unable to read uploaded file"))
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Unable to read uploaded file"))
		}
		files = append(files, entity.SelectedFile{
			Name:    part.Filename,
			Size:    part.Size,
			Content: content,
		})
	}

	form := c.service.Select(ctx.Context(), formID, files)
	return ctx.JSON(serverutils.SuccessResponse("Files selected", dto.ToStateResponse(form)))
}

func (c *generateController) Generate(ctx *fiber.Ctx) error {
	formID := serverutils.FormID(ctx)

	var session *entity.Session
	if sessionID, ok := sessionIDFromLocals(ctx); ok {
		if s, found := c.sessions.Current(ctx.Context(), sessionID); found {
			session = s
		}
	}

	form, err := c.service.Generate(ctx.Context(), formID, session)
	if err != nil {
		if errors.Is(err, service.ErrSessionRequired) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(serverutils.ErrorResponse(401, "Sign in to generate your cheat sheet"))
		}
		if errors.Is(err, service.ErrGenerationInFlight) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, err.Error()))
		}
		var vErr *service.ValidationError
		if errors.As(err, &vErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, vErr.Reason))
		}
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	return ctx.JSON(serverutils.SuccessResponse("Generation finished", dto.ToStateResponse(form)))
}

func (c *generateController) Dismiss(ctx *fiber.Ctx) error {
	form := c.service.Dismiss(ctx.Context(), serverutils.FormID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Gate dismissed", dto.ToStateResponse(form)))
}

func (c *generateController) Reset(ctx *fiber.Ctx) error {
	form := c.service.Reset(ctx.Context(), serverutils.FormID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Form reset", dto.ToStateResponse(form)))
}

func (c *generateController) State(ctx *fiber.Ctx) error {
	form := c.service.State(ctx.Context(), serverutils.FormID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Form state", dto.ToStateResponse(form)))
}

func (c *generateController) DownloadArtifact(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid artifact id"))
	}

	pdf, found := c.artifacts.Get(id)
	if !found {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Artifact not found or expired"))
	}

	ctx.Set(fiber.HeaderContentType, "application/pdf")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="cramify-cheatsheet.pdf"`)
	return ctx.Send(pdf)
}
