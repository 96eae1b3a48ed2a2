// Package importer interpreta archivos de carga masiva de entradas.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/agro-inventario/internal/application/dto"
	"github.com/jhoicas/agro-inventario/internal/domain"
)

// Columnas esperadas en la cabecera. comentario es opcional.
var requiredColumns = []string{"producto", "sucursal", "cantidad", "costo", "fecha"}

var dateLayouts = []string{"2006-01-02", "02/01/2006", time.RFC3339}

// ParseInflows lee un CSV con cabecera producto,sucursal,cantidad,costo,fecha[,comentario].
// Acepta ',' o ';' como separador y coma decimal. Las filas que no se pueden interpretar se
// devuelven como rechazos con su número de línea; la cabecera inválida es un error.
func ParseInflows(r io.Reader) ([]dto.ImportRow, []dto.ImportRejection, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(peekSize(br))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, nil, fmt.Errorf("leer archivo: %w", err)
	}

	reader := csv.NewReader(br)
	reader.Comma = detectSeparator(string(first))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cabecera ilegible", domain.ErrInvalidInput)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, nil, err
	}

	var (
		rows     []dto.ImportRow
		rejected []dto.ImportRejection
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejected = append(rejected, dto.ImportRejection{Line: perr.Line, Reason: perr.Err.Error()})
				continue
			}
			return nil, nil, fmt.Errorf("leer archivo: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		row, reason := parseRecord(record, cols)
		if reason != "" {
			rejected = append(rejected, dto.ImportRejection{Line: line, Reason: reason})
			continue
		}
		row.Line = line
		rows = append(rows, row)
	}
	return rows, rejected, nil
}

func peekSize(br *bufio.Reader) int {
	if n := br.Size(); n < 512 {
		return n
	}
	return 512
}

func detectSeparator(head string) rune {
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}
	if strings.Count(head, ";") > strings.Count(head, ",") {
		return ';'
	}
	return ','
}

func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: falta la columna %q", domain.ErrInvalidInput, c)
		}
	}
	return cols, nil
}

func parseRecord(record []string, cols map[string]int) (dto.ImportRow, string) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	qty, err := parseDecimal(field("cantidad"))
	if err != nil {
		return dto.ImportRow{}, fmt.Sprintf("cantidad inválida %q", field("cantidad"))
	}
	cost, err := parseDecimal(field("costo"))
	if err != nil {
		return dto.ImportRow{}, fmt.Sprintf("costo inválido %q", field("costo"))
	}
	date, err := parseDate(field("fecha"))
	if err != nil {
		return dto.ImportRow{}, fmt.Sprintf("fecha inválida %q", field("fecha"))
	}
	return dto.ImportRow{
		ProductName: field("producto"),
		BranchName:  field("sucursal"),
		Quantity:    qty,
		UnitCost:    cost,
		Date:        date,
		Comment:     field("comentario"),
	}, ""
}

// parseDecimal acepta "1234.5" y "1234,5"; con ambos separadores asume "1.234,5".
func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	switch {
	case strings.Contains(s, ",") && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("formato no soportado")
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
