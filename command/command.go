// Package command lists the known archiving and compression application names,
// probes the system for them and runs fully assembled command lines in a shell.
package command

// A note about tar: GNU tar and BSD tar (bsdtar, libarchive) accept different
// flags to select an external compressor. The definition package Flavor type
// carries the flags for each variant, this package only knows the names.

const (
	Bash       = "bash"       // Bash is the shell used to run the command lines.
	Bzip2      = "bzip2"      // Bzip2 is the bzip2 compression command.
	Gzip       = "gzip"       // Gzip is the gzip compression command.
	Isoinfo    = "isoinfo"    // Isoinfo is the ISO 9660 image listing command.
	Lbzip2     = "lbzip2"     // Lbzip2 is the parallel bzip2 compression command.
	Mksquashfs = "mksquashfs" // Mksquashfs is the squashfs filesystem creation command.
	Pixz       = "pixz"       // Pixz is the parallel, indexed xz compression command.
	Rsync      = "rsync"      // Rsync is the file mirroring command.
	Tar        = "tar"        // Tar is the tar archive command.
	Unsquashfs = "unsquashfs" // Unsquashfs is the squashfs filesystem extraction command.
	Xz         = "xz"         // Xz is the xz compression command.
	Zstd       = "zstd"       // Zstd is the Zstandard compression command.
)

// BashPath is the default shell path for the Shell runner.
const BashPath = "/bin/bash"
