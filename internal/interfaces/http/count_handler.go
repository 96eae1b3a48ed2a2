package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// CountHandler maneja el ciclo de vida de los conteos físicos (protegido).
type CountHandler struct {
	uc       *inventory.CountUseCase
	validate *validator.Validate
	log      *logger.Logger
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *inventory.CountUseCase, validate *validator.Validate, log *logger.Logger) *CountHandler {
	return &CountHandler{uc: uc, validate: validate, log: log}
}

// Create godoc
// @Summary      Crear conteo con una línea por producto
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateCountRequest  true  "branch_id, responsible, notes, date"
// @Success      201   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/counts [post]
func (h *CountHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCountRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	if in.Responsible == "" {
		in.Responsible = GetUserID(c)
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar conteos (más recientes primero)
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = todas."
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.CountListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/counts [get]
func (h *CountHandler) List(c *fiber.Ctx) error {
	page, err := bindPage(c, h.validate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.List(c.UserContext(), c.Query("branch_id"), page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener conteo con sus líneas
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [get]
func (h *CountHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpdateItems godoc
// @Summary      Capturar cantidades físicas
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                       true  "Conteo"
// @Param        body  body  dto.UpdateCountItemsRequest  true  "items"
// @Success      200   {object}  dto.CountResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/items [put]
func (h *CountHandler) UpdateItems(c *fiber.Ctx) error {
	var in dto.UpdateCountItemsRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.UpdateItems(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Recalculate godoc
// @Summary      Recalcular cantidades teóricas conservando lo contado
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/recalculate [post]
func (h *CountHandler) Recalculate(c *fiber.Ctx) error {
	out, err := h.uc.Recalculate(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Equalize godoc
// @Summary      Igualar físico al teórico (requiere confirm=true)
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "Conteo"
// @Param        body  body  dto.EqualizeRequest  true  "confirm"
// @Success      200   {object}  dto.CountResponse
// @Failure      428   {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/equalize [post]
func (h *CountHandler) Equalize(c *fiber.Ctx) error {
	var in dto.EqualizeRequest
	if len(c.Body()) > 0 {
		if err := bind(c, h.validate, &in); err != nil {
			return writeError(c, h.log, err)
		}
	}
	out, err := h.uc.Equalize(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Complete godoc
// @Summary      Cerrar la captura del conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Conteo"
// @Success      200  {object}  dto.CountResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/complete [post]
func (h *CountHandler) Complete(c *fiber.Ctx) error {
	out, err := h.uc.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ApplyAdjustments godoc
// @Summary      Generar los movimientos de ajuste del conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Conteo"
// @Success      201  {object}  dto.ApplyAdjustmentsResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/apply [post]
func (h *CountHandler) ApplyAdjustments(c *fiber.Ctx) error {
	out, err := h.uc.ApplyAdjustments(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Delete godoc
// @Summary      Borrar un conteo sin ajustes aplicados
// @Tags         counts
// @Security     Bearer
// @Param        id  path  string  true  "Conteo"
// @Success      204
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/counts/{id} [delete]
func (h *CountHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Report godoc
// @Summary      Acta de conteo en PDF
// @Tags         counts
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "Conteo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/counts/{id}/report [get]
func (h *CountHandler) Report(c *fiber.Ctx) error {
	id := c.Params("id")
	pdf, err := h.uc.Report(c.UserContext(), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="conteo-`+id+`.pdf"`)
	return c.Send(pdf)
}
