package main

import (
	"net"
	"strings"
)

type link interface {
	Up() bool
	Addrs() []string
}

// netLink watches one interface. Association and addressing are the OS's
// business; the clock only looks at the flags.
type netLink struct {
	name string
}

func (l netLink) Up() bool {
	iface, err := net.InterfaceByName(l.name)
	if err != nil {
		return false
	}
	return iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagRunning != 0
}

func (l netLink) Addrs() []string {
	iface, err := net.InterfaceByName(l.name)
	if err != nil {
		return nil
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}
	var s []string
	for _, a := range addrs {
		ip, _, _ := strings.Cut(a.String(), "/")
		s = append(s, ip)
	}
	return s
}

type alwaysUp struct{}

func (alwaysUp) Up() bool        { return true }
func (alwaysUp) Addrs() []string { return []string{"127.0.0.1"} }

// pollLink logs transitions and drives the status LED: lit while offline.
func (a *clockApp) pollLink() {
	up := a.link.Up()
	if up == a.online {
		return
	}
	a.online = up
	a.recorder.SetLinkUp(up)
	if up {
		a.hw.led.Low()
		a.logger.Info("Station connected", "interface", a.settings.Interface, "addrs", a.link.Addrs())
		a.ntp.Restart()
	} else {
		a.hw.led.High()
		a.logger.Warn("Station disconnected", "interface", a.settings.Interface)
	}
}
