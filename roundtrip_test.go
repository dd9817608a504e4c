package decomp_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/Defacto2/decomp"
	"github.com/Defacto2/decomp/command"
	"github.com/Defacto2/decomp/definition"
	"github.com/Defacto2/helper"
	"github.com/Defacto2/magicnumber"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// programs skips the test when any of the named programs are not installed.
func programs(t *testing.T, names ...string) {
	t.Helper()
	if _, err := os.Stat(command.BashPath); err != nil {
		t.Skipf("%s is not installed", command.BashPath)
	}
	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s is not installed", name)
		}
	}
}

func env() map[string]string {
	return map[string]string{"PATH": os.Getenv("PATH")}
}

// content creates a source directory with a few files and returns their content by name.
func content(t *testing.T, dir string) map[string][]byte {
	t.Helper()
	files := map[string][]byte{
		"readme.txt":  []byte("decomp round trip\n"),
		"binary.dat":  bytes.Repeat([]byte{0x00, 0xff, 0x1a}, 4096),
		"spaced name": []byte("a file name with a space"),
	}
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, b := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
	}
	require.NoError(t, helper.Touch(filepath.Join(dir, "empty")))
	files["empty"] = []byte{}
	return files
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode string
		prog string
		sign magicnumber.Signature
	}{
		{"tar", command.Tar, magicnumber.TapeARchive},
		{"gzip", command.Gzip, magicnumber.GzipCompressArchive},
		{"xz", command.Xz, magicnumber.XZCompressArchive},
		{"pixz", command.Pixz, magicnumber.XZCompressArchive},
		{"bzip2", command.Bzip2, magicnumber.Bzip2CompressArchive},
		{"lbzip2", command.Lbzip2, magicnumber.Bzip2CompressArchive},
		{"zstd", command.Zstd, magicnumber.ZStandardArchive},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			t.Parallel()
			programs(t, command.Tar, tt.prog)
			ctx := context.Background()
			tmp := t.TempDir()
			want := content(t, filepath.Join(tmp, "src"))

			var stdout, stderr bytes.Buffer
			run := command.Shell{Stdout: &stdout, Stderr: &stderr}
			comp := decomp.New(definition.Compress(), decomp.WithRunner(run), decomp.WithEnv(env()))
			err := comp.Compress(ctx, decomp.Params{
				Source:   "src",
				Basedir:  tmp,
				Filename: filepath.Join(tmp, "archive"),
				Mode:     tt.mode,
				AutoExt:  true,
			})
			require.NoError(t, err, stderr.String())
			name := filepath.Join(tmp, "archive."+comp.Extension(tt.mode, false)[0])

			r, err := os.Open(name)
			require.NoError(t, err)
			sign, err := magicnumber.Archive(r)
			r.Close()
			require.NoError(t, err)
			assert.Equal(t, tt.sign, sign)

			dst := filepath.Join(tmp, "dst")
			require.NoError(t, os.Mkdir(dst, 0o755))
			ext := decomp.New(definition.Decompress(), decomp.WithRunner(run), decomp.WithEnv(env()))
			err = ext.Extract(ctx, decomp.Params{
				Source:      name,
				Destination: dst,
				Mode:        tt.mode,
			})
			require.NoError(t, err, stderr.String())

			n, err := helper.Count(filepath.Join(dst, "src"))
			require.NoError(t, err)
			assert.Equal(t, len(want), n)
			for file, b := range want {
				got, err := os.ReadFile(filepath.Join(dst, "src", file))
				require.NoError(t, err)
				assert.Equal(t, b, got, file)
			}
		})
	}
}

func TestRoundTrip_Squashfs(t *testing.T) {
	t.Parallel()
	programs(t, command.Mksquashfs, command.Unsquashfs)
	ctx := context.Background()
	tmp := t.TempDir()
	want := content(t, filepath.Join(tmp, "src"))
	name := filepath.Join(tmp, "archive.sfs")

	var stdout, stderr bytes.Buffer
	run := command.Shell{Stdout: &stdout, Stderr: &stderr}
	comp := decomp.New(definition.Compress(), decomp.WithRunner(run), decomp.WithEnv(env()))
	err := comp.Compress(ctx, decomp.Params{
		Source:   "src",
		Basedir:  tmp,
		Filename: name,
		Mode:     "squashfs_gzip",
	})
	require.NoError(t, err, stderr.String())

	list := decomp.New(definition.Contents(), decomp.WithEnv(env()))
	out, err := list.Contents(ctx, decomp.Params{Source: name})
	require.NoError(t, err)
	assert.Contains(t, out, "readme.txt")

	dst := filepath.Join(tmp, "dst")
	ext := decomp.New(definition.Decompress(), decomp.WithRunner(run), decomp.WithEnv(env()))
	err = ext.Extract(ctx, decomp.Params{Source: name, Destination: dst})
	require.NoError(t, err, stderr.String())
	for file, b := range want {
		got, err := os.ReadFile(filepath.Join(dst, file))
		require.NoError(t, err)
		assert.Equal(t, b, got, file)
	}
}

func TestContents_Tar(t *testing.T) {
	t.Parallel()
	programs(t, command.Tar, command.Gzip)
	ctx := context.Background()
	tmp := t.TempDir()
	content(t, filepath.Join(tmp, "src"))
	name := filepath.Join(tmp, "archive.tar.gz")

	comp := decomp.New(definition.Compress(), decomp.WithEnv(env()))
	require.NoError(t, comp.Compress(ctx, decomp.Params{
		Source: "src", Basedir: tmp, Filename: name,
	}))

	list := decomp.New(definition.Contents(), decomp.WithEnv(env()))
	out, err := list.Contents(ctx, decomp.Params{Source: name})
	require.NoError(t, err)
	assert.Contains(t, out, "src/readme.txt")
	assert.Contains(t, out, "src/spaced name")

	out, err = list.Contents(ctx, decomp.Params{Source: filepath.Join(tmp, "missing.tar.gz")})
	require.ErrorIs(t, err, command.ErrExit)
	assert.False(t, decomp.IsFatal(err))
	assert.NotEmpty(t, out)
}

func TestShell_Broken(t *testing.T) {
	t.Parallel()
	run := command.Shell{Path: filepath.Join(t.TempDir(), "no-such-shell")}
	m := decomp.New(definition.Contents(), decomp.WithRunner(run), decomp.WithAvailable(everything()))
	out, err := m.Contents(context.Background(), decomp.Params{Source: "a.tar", Mode: "tar"})
	require.ErrorIs(t, err, command.ErrSpawn)
	assert.True(t, decomp.IsFatal(err))
	assert.Empty(t, out)
}

func ExampleArgs() {
	def, _ := definition.Compress().Lookup("gzip")
	p := decomp.Params{
		Source:   "stage3",
		Basedir:  "/var/tmp",
		Filename: "stage3.tar.gz",
		Options:  []string{"--exclude=./stage3/proc"},
	}
	args, err := decomp.Args(def, p.Values(def.Key, definition.GNU), p.Options)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(decomp.Line(def.Command, args))
	// Output: tar --exclude=./stage3/proc --gzip -cpf stage3.tar.gz -C /var/tmp stage3
}
