package dto

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// PageRequest ventana de un listado. Limit 0 toma el valor por defecto.
type PageRequest struct {
	Limit  int `json:"limit" query:"limit" validate:"min=0,max=100"`
	Offset int `json:"offset" query:"offset" validate:"min=0"`
}

// DefaultPage completa Limit y recorta valores fuera de rango.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// Window devuelve los índices [start, end) de la página sobre total elementos.
func (p PageRequest) Window(total int) (start, end int) {
	p.DefaultPage()
	start = min(p.Offset, total)
	end = min(start+p.Limit, total)
	return start, end
}

// Response arma los metadatos de la página.
func (p PageRequest) Response(total int) PageResponse {
	p.DefaultPage()
	return PageResponse{Limit: p.Limit, Offset: p.Offset, Total: total}
}

// PageResponse metadatos de página en respuestas. Total cuenta el listado completo.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
