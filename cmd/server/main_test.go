package main

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestConfigureGinMode(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		expected string
	}{
		{"unset defaults to release", "", gin.ReleaseMode},
		{"explicit debug is kept", gin.DebugMode, gin.DebugMode},
		{"explicit test is kept", gin.TestMode, gin.TestMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(gin.EnvGinMode, tt.env)
			// gin は起動時に GIN_MODE を読むため、環境変数に合わせて初期状態を作る
			gin.SetMode(tt.env)
			t.Cleanup(func() { gin.SetMode(gin.TestMode) })

			configureGinMode()

			assert.Equal(t, tt.expected, gin.Mode())
		})
	}
}
