package http

import (
	"bytes"
	"io"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/application/inventory"
	"github.com/jhoicas/agro-inventario/internal/infrastructure/importer"
	"github.com/jhoicas/agro-inventario/pkg/logger"
)

// InventoryHandler maneja las peticiones HTTP del libro de movimientos y la valorización (protegido).
type InventoryHandler struct {
	valuation *inventory.ValuationUseCase
	movements *inventory.MovementUseCase
	imports   *inventory.ImportUseCase
	validate  *validator.Validate
	log       *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	valuation *inventory.ValuationUseCase,
	movements *inventory.MovementUseCase,
	imports *inventory.ImportUseCase,
	validate *validator.Validate,
	log *logger.Logger,
) *InventoryHandler {
	return &InventoryHandler{valuation: valuation, movements: movements, imports: imports, validate: validate, log: log}
}

// Positions godoc
// @Summary      Posiciones valorizadas (FIFO)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = todas."
// @Success      200  {array}   dto.InventoryPositionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/inventory/positions [get]
func (h *InventoryHandler) Positions(c *fiber.Ctx) error {
	out, err := h.valuation.Positions(c.UserContext(), c.Query("branch_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Position godoc
// @Summary      Posición de un producto en una sucursal, con capas FIFO
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Param        branch_id   path  string  true  "Sucursal"
// @Success      200  {object}  dto.InventoryPositionDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/positions/{product_id}/{branch_id} [get]
func (h *InventoryHandler) Position(c *fiber.Ctx) error {
	out, err := h.valuation.Position(c.UserContext(), c.Params("product_id"), c.Params("branch_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// RegisterMovement godoc
// @Summary      Registrar entrada, salida o ajuste
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, branch_id, type, quantity, price_at_transaction"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.movements.RegisterMovement(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterTransfer godoc
// @Summary      Traslado entre sucursales (dos filas, una remisión)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "product_id, from_branch_id, to_branch_id, quantity"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) RegisterTransfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.movements.RegisterTransfer(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// RegisterConversion godoc
// @Summary      Conversión entre productos en una sucursal
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConversionRequest  true  "branch_id, source_product_id, source_quantity, target_product_id, target_quantity"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/conversions [post]
func (h *InventoryHandler) RegisterConversion(c *fiber.Ctx) error {
	var in dto.ConversionRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.movements.RegisterConversion(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateMovement godoc
// @Summary      Editar cantidad, precio o comentario de un movimiento
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true  "Movimiento"
// @Param        body  body  dto.UpdateMovementRequest  true  "campos a modificar"
// @Success      200   {object}  dto.MutationResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [put]
func (h *InventoryHandler) UpdateMovement(c *fiber.Ctx) error {
	var in dto.UpdateMovementRequest
	if err := bind(c, h.validate, &in); err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.movements.UpdateMovement(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DeleteMovement godoc
// @Summary      Borrar un movimiento
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Movimiento"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/movements/{id} [delete]
func (h *InventoryHandler) DeleteMovement(c *fiber.Ctx) error {
	out, err := h.movements.DeleteMovement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DeleteRemission godoc
// @Summary      Borrar todas las filas de una remisión
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número de remisión"
// @Success      200  {object}  dto.MutationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/remissions/{number} [delete]
func (h *InventoryHandler) DeleteRemission(c *fiber.Ctx) error {
	number, err := url.PathUnescape(c.Params("number"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "número de remisión inválido"})
	}
	out, err := h.movements.DeleteRemission(c.UserContext(), number)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// StockLog godoc
// @Summary      Kardex agrupado por remisión
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        branch_id  query  string  false  "Sucursal. Vacío = todas."
// @Param        limit      query  int     false  "Remisiones por página"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.StockLogResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-log [get]
func (h *InventoryHandler) StockLog(c *fiber.Ctx) error {
	page, err := bindPage(c, h.validate)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.movements.StockLog(c.UserContext(), c.Query("branch_id"), page)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// ImportInflows godoc
// @Summary      Carga masiva de entradas desde CSV
// @Description  Acepta multipart (campo "file") o el CSV como cuerpo. Columnas: producto,sucursal,cantidad,costo,fecha[,comentario].
// @Tags         inventory
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Success      201  {object}  dto.ImportResult
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/imports [post]
func (h *InventoryHandler) ImportInflows(c *fiber.Ctx) error {
	src, err := importSource(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: "archivo CSV requerido"})
	}
	defer src.Close()

	rows, parseRejected, err := importer.ParseInflows(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_FILE", Message: err.Error()})
	}
	res, err := h.imports.ImportInflows(c.UserContext(), GetUserID(c), rows)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res.Rejected = mergeRejections(parseRejected, res.Rejected)
	status := fiber.StatusCreated
	if res.Imported == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(res)
}

func importSource(c *fiber.Ctx) (io.ReadCloser, error) {
	if fh, err := c.FormFile("file"); err == nil {
		return fh.Open()
	}
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

// mergeRejections une los rechazos del parser y del caso de uso ordenados por línea.
func mergeRejections(a, b []dto.ImportRejection) []dto.ImportRejection {
	out := make([]dto.ImportRejection, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Line <= b[j].Line {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
