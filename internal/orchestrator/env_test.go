package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/TestFlowLabs/bridge/internal/service"
)

func TestBuildEnv(t *testing.T) {
	base := []string{"PATH=/bin", "API_URL=http://old", "HOME=/root"}

	t.Run("no api base leaves environment alone", func(t *testing.T) {
		def := service.New("http://localhost:3000").Env(map[string]string{"GRAPHQL_URL": "/graphql"})
		assert.Equal(t, base, buildEnv(base, "", def))
	})

	t.Run("overrides in place and appends sorted", func(t *testing.T) {
		def := service.New("http://localhost:3000").Env(map[string]string{
			"GRAPHQL_URL": "/graphql",
			"API_URL":     "v2",
		})
		env := buildEnv(base, "http://api.test/", def)

		assert.Equal(t, "PATH=/bin", env[0])
		assert.Equal(t, "API_URL=http://api.test/v2", env[1], "custom variables win over injected ones")
		assert.Equal(t, "HOME=/root", env[2])
		assert.Contains(t, env, "GRAPHQL_URL=http://api.test/graphql")
		assert.Contains(t, env, "VITE_API_URL=http://api.test/")
		assert.Contains(t, env, "REACT_APP_API_BASE_URL=http://api.test/")
		assert.Len(t, env, len(APIEnvVars)+3)

		appended := env[3:]
		for i := 1; i < len(appended); i++ {
			assert.Less(t, appended[i-1], appended[i])
		}
	})
}
