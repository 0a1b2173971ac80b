package app

import "golang.org/x/sys/unix"

// diskUsage reports free and total bytes of the filesystem holding path.
func diskUsage(path string) (free, total uint64, err error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return 0, 0, err
	}
	bsize := uint64(fs.Bsize)
	return fs.Bavail * bsize, fs.Blocks * bsize, nil
}
