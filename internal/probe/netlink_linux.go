//go:build linux

package probe

// Registers the kernel w1 netlink bus with onewirereg.
import _ "periph.io/x/host/v3/netlink"
