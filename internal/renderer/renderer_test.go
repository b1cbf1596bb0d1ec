package renderer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub writes an executable shell script standing in for java.
func writeStub(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs require a Unix shell")
	}

	p := filepath.Join(t.TempDir(), "fake-java")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body), 0o755)) //nolint:gosec // test

	return p
}

func TestNew_Defaults(t *testing.T) {
	inv := New(Options{})
	argv := inv.Command(FormatSVG)

	require.Len(t, argv, 6)
	assert.Equal(t, DefaultExecutable, argv[0])
	assert.Equal(t, DefaultJarName, filepath.Base(argv[3]))
}

func TestCommand(t *testing.T) {
	inv := New(Options{Executable: "java", JarPath: "/opt/plantuml.jar"})

	assert.Equal(t,
		[]string{"java", "-splash:no", "-jar", "/opt/plantuml.jar", "-pipe", "-tsvg"},
		inv.Command(FormatSVG))
	assert.Equal(t,
		[]string{"java", "-splash:no", "-jar", "/opt/plantuml.jar", "-pipe", "-tpng"},
		inv.Command(FormatPNG))
}

func TestCommand_ExtraArgs(t *testing.T) {
	inv := New(Options{Executable: "java", JarPath: "p.jar", ExtraArgs: []string{"-charset", "UTF-8"}})

	argv := inv.Command(FormatPNG)
	assert.Equal(t, []string{"-tpng", "-charset", "UTF-8"}, argv[5:])
}

func TestRender_PipesStdinToStdout(t *testing.T) {
	stub := writeStub(t, "echo \"$@\"\ncat\n")
	inv := New(Options{Executable: stub, JarPath: "/opt/plantuml.jar"})

	out, err := inv.Render(context.Background(), FormatSVG, "@startuml\nA -> B\n@enduml\n")
	require.NoError(t, err)
	assert.Equal(t, "-splash:no -jar /opt/plantuml.jar -pipe -tsvg\n@startuml\nA -> B\n@enduml\n", string(out))
}

func TestRender_UTF8Passthrough(t *testing.T) {
	stub := writeStub(t, "cat\n")
	inv := New(Options{Executable: stub, JarPath: "x.jar"})

	out, err := inv.Render(context.Background(), FormatPNG, "Bob -> Zoë : héllo ✓")
	require.NoError(t, err)
	assert.Equal(t, []byte("Bob -> Zoë : héllo ✓"), out)
}

func TestRender_NonZeroExitKeepsOutput(t *testing.T) {
	stub := writeStub(t, "cat\necho boom >&2\nexit 3\n")
	inv := New(Options{Executable: stub, JarPath: "x.jar"})

	out, err := inv.Render(context.Background(), FormatSVG, "partial")
	assert.Equal(t, "partial", string(out))

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Equal(t, FormatSVG, invErr.Format)
	assert.Equal(t, "boom", invErr.Stderr)

	var exitErr *exec.ExitError
	assert.True(t, errors.As(err, &exitErr))
}

func TestRender_MissingExecutable(t *testing.T) {
	inv := New(Options{Executable: "/nonexistent/java-12345", JarPath: "x.jar"})

	out, err := inv.Render(context.Background(), FormatSVG, "@startuml\n@enduml\n")
	assert.Empty(t, out)

	var invErr *InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.Contains(t, invErr.Error(), "rendering svg")
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("  abc\n", 10))
	assert.Equal(t, "...def", tail("abcdef", 3))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"svg", FormatSVG, false},
		{"SVG", FormatSVG, false},
		{".png", FormatPNG, false},
		{" png ", FormatPNG, false},
		{"pdf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("/tmp/diagram.PNG")
	assert.True(t, ok)
	assert.Equal(t, FormatPNG, f)

	_, ok = FormatFromPath("/tmp/diagram")
	assert.False(t, ok)
}

func TestWithExtension(t *testing.T) {
	assert.Equal(t, "out.svg", WithExtension("out", FormatSVG))
	assert.Equal(t, "out.SVG", WithExtension("out.SVG", FormatSVG))
	assert.Equal(t, "out.svg.png", WithExtension("out.svg", FormatPNG))
}
