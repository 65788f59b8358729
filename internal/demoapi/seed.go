package demoapi

import (
	"fmt"
	"time"

	"github.com/ankittk/osboard/pkg/models"
)

// Seed fills the server with one coordination, two teams and a month of work orders
// around now.
func (s *Server) Seed(now time.Time) {
	day := func(offset int) *string {
		v := now.AddDate(0, 0, offset).Format("2006-01-02")
		return &v
	}

	s.AddStructure(
		models.Structure{ID: "E1", Coordination: "Manutencao Norte", Team: "Linha Viva", CostCenter: "1001", Execution: models.FlagExecution, Status: models.FlagActive},
		models.Structure{ID: "E2", Coordination: "Manutencao Norte", Team: "Subestacoes", CostCenter: "1002", Execution: models.FlagExecution, Status: models.FlagActive},
		models.Structure{ID: "E3", Coordination: "Manutencao Sul", Team: "Redes", CostCenter: "2001", Execution: "nao", Status: models.FlagActive},
	)
	s.AddSubTeams(
		models.SubTeamConfig{Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno A", Escala: "12x36", Status: models.FlagActive},
		models.SubTeamConfig{Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno B", Escala: "12x36", Status: models.FlagActive},
		models.SubTeamConfig{Coordination: "Manutencao Norte", TeamID: "E2", SubTeam: "Administrativo", Escala: "5x2", Status: models.FlagActive},
	)
	s.AddHolidays(models.Holiday{ID: "H1", TeamID: "E1", Label: "Feriado municipal", Date: *day(6)})

	types := []string{"PREVENTIVA", "CORRETIVA", "INSPECAO"}
	for i := 0; i < 6; i++ {
		s.PutOrder(models.WorkOrder{
			ID:               fmt.Sprintf("os-%d", 100+i),
			Number:           int64(100 + i),
			Type:             types[i%len(types)],
			Status:           models.StatusCreated,
			AssetCode:        fmt.Sprintf("TR-%02d", i+1),
			AssetDescription: fmt.Sprintf("Transformador %d", i+1),
			Team:             "Linha Viva",
		})
	}
	s.PutOrder(models.WorkOrder{ID: "os-200", Number: 200, Type: "PREVENTIVA", Status: models.StatusScheduled,
		Programado3: day(2), AssetCode: "SE-01", AssetDescription: "Disjuntor", Team: "Linha Viva"})
	s.PutOrder(models.WorkOrder{ID: "os-201", Number: 201, Type: "CORRETIVA", Status: models.StatusScheduled,
		Programado1: day(-3), AssetCode: "SE-02", AssetDescription: "Seccionadora", Team: "Linha Viva"})
	s.PutOrder(models.WorkOrder{ID: "os-202", Number: 202, Type: "INSPECAO", Status: models.StatusRealized,
		Programado2: day(-2), RealizedAt: day(-1), AssetCode: "SE-03", AssetDescription: "Religador", Team: "Linha Viva"})
	s.PutOrder(models.WorkOrder{ID: "os-300", Number: 300, Type: "PREVENTIVA", Status: models.StatusCreated,
		AssetCode: "SB-01", AssetDescription: "Banco de baterias", Team: "Subestacoes"})

	s.SetAssignment(models.Assignment{OrderID: "os-200", Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno A"})
	s.SetAssignment(models.Assignment{OrderID: "os-105", Coordination: "Manutencao Norte", TeamID: "E1", SubTeam: "Turno B"})
}
