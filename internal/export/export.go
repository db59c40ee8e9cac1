// Package export writes the catalog as downloadable CSV or JSON files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/metrics"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

const baseName = "biblioteca-acervo"

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("formato de exportação desconhecido: %q", s)
}

// Filename is the suggested download name.
func (f Format) Filename() string {
	return baseName + "." + string(f)
}

func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}

// SuccessMessage is the notification shown after a completed export.
func (f Format) SuccessMessage() string {
	return fmt.Sprintf("Arquivo %s exportado com sucesso!", strings.ToUpper(string(f)))
}

// FailureMessage is the notification shown when an export fails.
func (f Format) FailureMessage() string {
	return "Erro ao exportar " + strings.ToUpper(string(f))
}

// Progress receives the number of entries written since the last call.
// *progressbar.ProgressBar satisfies it.
type Progress interface {
	Add(n int) error
}

// Columns is the CSV header, in entry field order.
var Columns = []string{
	"id", "titulo", "autor", "ano", "genero", "editora", "numero_edicao",
	"isbn", "capa_url", "status", "data_emprestimo", "descricao",
}

// Write encodes entries in format f. p may be nil.
func Write(w io.Writer, f Format, entries []catalog.Entry, p Progress) error {
	var err error
	switch f {
	case FormatCSV:
		err = CSV(w, entries, p)
	case FormatJSON:
		err = JSON(w, entries, p)
	default:
		return fmt.Errorf("formato de exportação desconhecido: %q", f)
	}
	if err == nil {
		metrics.ExportsTotal.WithLabelValues(string(f)).Inc()
	}
	return err
}

// CSV writes a header row and one row per entry. Fields containing commas,
// quotes or line breaks are quoted with embedded quotes doubled. An empty
// catalog gives an empty file, header included.
func CSV(w io.Writer, entries []catalog.Entry, p Progress) error {
	if len(entries) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(row(e)); err != nil {
			return fmt.Errorf("write csv row %d: %w", e.ID, err)
		}
		if p != nil {
			_ = p.Add(1)
		}
	}
	cw.Flush()
	return cw.Error()
}

func row(e catalog.Entry) []string {
	edition := ""
	if e.NumeroEdicao != nil {
		edition = strconv.Itoa(*e.NumeroEdicao)
	}
	lent := ""
	if e.DataEmprestimo != nil {
		lent = e.DataEmprestimo.Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(e.ID),
		e.Titulo,
		e.Autor,
		strconv.Itoa(e.Ano),
		e.Genero,
		e.Editora,
		edition,
		e.ISBN,
		e.CapaURL,
		string(e.Status),
		lent,
		e.Descricao,
	}
}

// JSON writes entries as an indented array.
func JSON(w io.Writer, entries []catalog.Entry, p Progress) error {
	if entries == nil {
		entries = []catalog.Entry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	if p != nil {
		_ = p.Add(len(entries))
	}
	return nil
}
