package report

import (
	"context"
	"fmt"

	"github.com/fleetops/tms/internal/application/port"
	"github.com/fleetops/tms/internal/domain/entity"
	"github.com/fleetops/tms/internal/domain/workflow"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const reportSheet = "Kilometer Report"

// KilometerReportGenerator exports monthly mileage records to an Excel
// workbook for the transport office.
type KilometerReportGenerator struct {
	kilometerRepo port.KilometerLogRepository
	vehicleRepo   port.VehicleRepository
	logger        *zap.Logger
}

// NewKilometerReportGenerator creates a new report generator
func NewKilometerReportGenerator(kilometerRepo port.KilometerLogRepository, vehicleRepo port.VehicleRepository, logger *zap.Logger) *KilometerReportGenerator {
	return &KilometerReportGenerator{
		kilometerRepo: kilometerRepo,
		vehicleRepo:   vehicleRepo,
		logger:        logger,
	}
}

// Generate builds the workbook covering the inclusive month range and
// writes it to outputPath. Months are in YYYY-MM form.
func (g *KilometerReportGenerator) Generate(ctx context.Context, fromMonth, toMonth, outputPath string) error {
	if fromMonth > toMonth {
		return fmt.Errorf("%w: month range %s to %s is inverted", workflow.ErrValidation, fromMonth, toMonth)
	}

	logs, err := g.kilometerRepo.ListByMonthRange(ctx, fromMonth, toMonth)
	if err != nil {
		return fmt.Errorf("load kilometer logs: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	g.setCell(f, "A1", "License Plate")
	g.setCell(f, "B1", "Model")
	g.setCell(f, "C1", "Month")
	g.setCell(f, "D1", "Kilometers Driven")
	g.setCell(f, "E1", "Lifetime Kilometers")

	vehicles, err := g.vehicleIndex(ctx, logs)
	if err != nil {
		return err
	}

	row := 2
	totals := make(map[int64]float64)
	for _, log := range logs {
		vehicle := vehicles[log.VehicleID]
		plate, model := "unknown", "unknown"
		var lifetime float64
		if vehicle != nil {
			plate, model, lifetime = vehicle.LicensePlate, vehicle.Model, vehicle.TotalKilometers
		}

		g.setCell(f, fmt.Sprintf("A%d", row), plate)
		g.setCell(f, fmt.Sprintf("B%d", row), model)
		g.setCell(f, fmt.Sprintf("C%d", row), log.Month)
		g.setCell(f, fmt.Sprintf("D%d", row), log.KilometersDriven)
		g.setCell(f, fmt.Sprintf("E%d", row), lifetime)

		totals[log.VehicleID] += log.KilometersDriven
		row++
	}

	// summary block below the detail rows
	row++
	g.setCell(f, fmt.Sprintf("A%d", row), "Totals")
	row++
	for id, total := range totals {
		plate := "unknown"
		if v := vehicles[id]; v != nil {
			plate = v.LicensePlate
		}
		g.setCell(f, fmt.Sprintf("A%d", row), plate)
		g.setCell(f, fmt.Sprintf("D%d", row), total)
		row++
	}

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	g.logger.Info("Kilometer report generated",
		zap.String("from", fromMonth),
		zap.String("to", toMonth),
		zap.Int("records", len(logs)),
		zap.String("output", outputPath))

	return nil
}

func (g *KilometerReportGenerator) vehicleIndex(ctx context.Context, logs []*entity.MonthlyKilometerLog) (map[int64]*entity.Vehicle, error) {
	vehicles := make(map[int64]*entity.Vehicle)
	for _, log := range logs {
		if _, seen := vehicles[log.VehicleID]; seen {
			continue
		}
		vehicle, err := g.vehicleRepo.GetByID(ctx, log.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle %d: %w", log.VehicleID, err)
		}
		vehicles[log.VehicleID] = vehicle
	}
	return vehicles, nil
}

func (g *KilometerReportGenerator) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(reportSheet, cell, value); err != nil {
		g.logger.Warn("Failed to set report cell",
			zap.String("cell", cell),
			zap.Error(err))
	}
}
