package db

import (
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithFoundRows(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
	}{
		{name: "default dsn", dsn: "user:password@tcp(localhost:3306)/taskboard?charset=utf8mb4&parseTime=True&loc=UTC"},
		{name: "no params", dsn: "root@tcp(db:3306)/taskboard"},
		{name: "explicitly disabled", dsn: "root@tcp(db:3306)/taskboard?clientFoundRows=false&parseTime=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := withFoundRows(tt.dsn)
			require.NoError(t, err)

			before, err := mysqldriver.ParseDSN(tt.dsn)
			require.NoError(t, err)
			after, err := mysqldriver.ParseDSN(out)
			require.NoError(t, err)

			assert.True(t, after.ClientFoundRows)
			assert.Equal(t, before.Addr, after.Addr)
			assert.Equal(t, before.DBName, after.DBName)
			assert.Equal(t, before.User, after.User)
			assert.Equal(t, before.ParseTime, after.ParseTime)
		})
	}
}

func TestWithFoundRows_InvalidDSN(t *testing.T) {
	_, err := withFoundRows("tcp(localhost:3306/taskboard")
	assert.Error(t, err)
}

func TestNewMySQL_InvalidDSN(t *testing.T) {
	_, err := NewMySQL("tcp(localhost:3306/taskboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse mysql dsn")
}
