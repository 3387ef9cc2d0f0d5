package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"solveit/internal/model"
)

func TestExportService_ExportComplaints(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "Lib Assistant", model.CategoryLibrary, model.RankAssistant)
	submit(t, env, newStudent("Asha"), "Library", "urgent")
	submit(t, env, newStudent("Vikram"), "Hostel", "low")

	svc := NewExportService(env.repo, zap.NewNop()).(*exportService)
	svc.now = func() time.Time { return t0.Add(30 * time.Hour) }

	buf, filename, err := svc.ExportComplaints(ctx, ExportFilter{})
	require.NoError(t, err)
	assert.Equal(t, "complaints_20260303.xlsx", filename)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Complaints")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, complaintHeaders, rows[0])

	byTicket := map[string][]string{}
	for _, r := range rows[1:] {
		byTicket[r[0]] = r
	}
	assert.Equal(t, "Library", byTicket["CMP-001"][2])
	assert.Equal(t, "Lib Assistant", byTicket["CMP-001"][6])
	assert.Equal(t, "yes", byTicket["CMP-001"][12], "urgent complaint is 6h past due")
	assert.Equal(t, "pending", byTicket["CMP-002"][4])
	assert.Equal(t, "no", byTicket["CMP-002"][12], "pending complaints are never overdue")

	buf, _, err = svc.ExportComplaints(ctx, ExportFilter{Category: model.CategoryHostel})
	require.NoError(t, err)
	f2, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f2.Close()
	rows, err = f2.GetRows("Complaints")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestExportService_ExportStaff(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addStaff(t, "Lib Assistant", model.CategoryLibrary, model.RankAssistant)
	env.addStaff(t, "Lib Supervisor", model.CategoryLibrary, model.RankSupervisor)
	env.addStaff(t, "Warden", model.CategoryHostel, model.RankSupervisor)

	buf, filename, err := NewExportService(env.repo, zap.NewNop()).ExportStaff(ctx, model.CategoryLibrary)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "staff_performance_"))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Staff")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	titles := []string{rows[1][4], rows[2][4]}
	assert.ElementsMatch(t, []string{"Library Assistant", "Library Supervisor"}, titles)
}
