package daemon

// portCandidates bounds the linear probe so a wildly busy host does not
// turn startup into a port scan.
const portCandidates = 10

// defaultPeerPort is transmission's stock peer listening port.
const defaultPeerPort = 51413

// pickPort probes ports linearly starting from preferred. When every
// candidate is taken it returns preferred unchanged and lets the daemon
// report the conflict itself.
func pickPort(sys System, preferred int) int {
	for offset := 0; offset < portCandidates; offset++ {
		candidate := preferred + offset
		if candidate > 65535 {
			break
		}
		if sys.PortFree(candidate) {
			return candidate
		}
	}
	return preferred
}
