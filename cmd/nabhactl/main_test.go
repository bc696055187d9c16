package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabhacare/backend/internal/domain/entities"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := rootCmd()

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "down"},
		{"migrate", "status"},
		{"seed"},
		{"reindex-doctors"},
		{"issue-token"},
		{"whoami"},
		{"watch"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestWatch_RequiresConsultationID(t *testing.T) {
	root := rootCmd()
	root.SetArgs([]string{"watch"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	assert.Error(t, err)
}

func TestMigrateDown_RejectsZeroSteps(t *testing.T) {
	root := rootCmd()
	root.SetArgs([]string{"migrate", "down", "--steps", "0"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--steps")
}

func TestSeedData_IsConsistent(t *testing.T) {
	roles := make(map[string]entities.Role)
	for _, p := range seedProfiles {
		roles[p.UserID] = p.Role
		assert.True(t, p.Role.IsValid(), p.UserID)
	}

	for _, d := range seedDoctors {
		assert.Equal(t, entities.RoleDoctor, roles[d.UserID], d.UserID)
	}

	medicines := make(map[string]bool)
	for _, m := range seedMedicines {
		medicines[m] = true
	}
	for _, ph := range seedPharmacies {
		assert.Equal(t, entities.RolePharmacy, roles[ph.OwnerID], ph.Name)
		for name, qty := range ph.Stock {
			assert.True(t, medicines[name], name)
			assert.GreaterOrEqual(t, qty, 0)
		}
	}
}

func TestPrintJSON_Indents(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"count": 2}))
	assert.Equal(t, "{\n  \"count\": 2\n}\n", buf.String())
}
