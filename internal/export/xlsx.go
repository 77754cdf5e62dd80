package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"piscineiro/internal/domain"
	"piscineiro/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Agendamentos"

// Exporter writes appointment schedules to .xlsx files for back-office use.
type Exporter struct {
	repo   domain.Repository
	path   string
	logger *zerolog.Logger
}

func NewExporter(repo domain.Repository, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		repo:   repo,
		path:   path,
		logger: logger,
	}
}

// AppointmentsReport writes every appointment in [startDate, endDate] to a new
// workbook and returns the file path. Dates are "2006-01-02" strings.
func (e *Exporter) AppointmentsReport(ctx context.Context, startDate, endDate string) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	appts, err := e.repo.GetAppointmentsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("load appointments: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Período: %s a %s", startDate, endDate))
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.MergeCell(sheetName, "A1", "H1")
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	e.writeHeaders(f)
	total := e.writeRows(ctx, f, appts)

	// Total row right after the data
	totalCell, _ := excelize.CoordinatesToCellName(5, len(appts)+3)
	valueCell, _ := excelize.CoordinatesToCellName(6, len(appts)+3)
	_ = f.SetCellValue(sheetName, totalCell, "Total")
	_ = f.SetCellValue(sheetName, valueCell, total)

	widths := []float64{12, 10, 25, 25, 30, 12, 12, 12}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheetName, col, col, w)
	}

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("agendamentos_%s_a_%s.xlsx", startDate, endDate)
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("appointments", len(appts)).Msg("schedule exported")
	return filePath, nil
}

func (e *Exporter) writeHeaders(f *excelize.File) {
	headers := []string{"Data", "Horário", "Piscineiro", "Cliente", "Serviço", "Valor (R$)", "Pagamento", "Status"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}
}

func (e *Exporter) writeRows(ctx context.Context, f *excelize.File, appts []*models.Appointment) float64 {
	var total float64
	for i, appt := range appts {
		row := i + 3

		clientName := appt.ClientID
		if client, err := e.repo.GetClient(ctx, appt.ClientID); err == nil {
			clientName = client.Name
		} else {
			e.logger.Error().Err(err).Str("client_id", appt.ClientID).Msg("load client for export")
		}

		values := []interface{}{
			appt.Date,
			appt.Time,
			appt.ProviderName,
			clientName,
			appt.ServiceDescription,
			appt.ServicePrice,
			appt.PaymentMethod,
			appt.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}

		if appt.Status != models.StatusCancelled {
			total += appt.ServicePrice
		}
	}
	return total
}
