// Package session describes the virtual network a cluster test runs on: the
// physical hosts, their bridges and the virtual hosts each one carries. The
// description is exchanged as yaml with the cs tool that sets the network up.
package session

import (
	"context"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v2"
	"os"
	"sort"
	"strings"
)

type Target string

const (
	Started Target = "started"
	Stopped Target = "stopped"
)

// Session maps the name of each physical host to its description.
type Session map[string]*Host

type Host struct {
	Bridge Bridge   `yaml:"bridge"`
	VHosts []*VHost `yaml:"vhosts"`
}

type Bridge struct {
	Device string `yaml:"device"`
	Iface  string `yaml:"iface"`
	Peers  []Peer `yaml:"peers"`
}

type Peer struct {
	Device string `yaml:"device"`
	Host   string `yaml:"host"`
}

type VHost struct {
	Device    string `yaml:"device"`
	Iface     string `yaml:"iface"`
	Namespace string `yaml:"namespace"`
	Target    Target `yaml:"target"`
}

// IP returns the address of the virtual host without its prefix length.
func (v *VHost) IP() string { return strings.SplitN(v.Iface, "/", 2)[0] }

func Parse(b []byte) (Session, error) {
	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "[session] - malformed session")
	}
	return s, nil
}

func Load(path string) (Session, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "[session] - failed to read %s", path)
	}
	return Parse(b)
}

func (s Session) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(s)
	return b, errors.Wrap(err, "[session] - failed to encode session")
}

// VHosts returns every virtual host, ordered by host name.
func (s Session) VHosts() []*VHost {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []*VHost
	for _, name := range names {
		if h := s[name]; h != nil {
			out = append(out, h.VHosts...)
		}
	}
	return out
}

// StartedHosts returns the address of every virtual host targeted to run.
func (s Session) StartedHosts() []string {
	var out []string
	for _, vh := range s.VHosts() {
		if vh.Target == Started {
			out = append(out, vh.IP())
		}
	}
	return out
}

// Start targets n more virtual hosts to run. It returns false when fewer than n
// were stopped.
func (s Session) Start(n int) bool { return s.retarget(n, Started) }

// Stop targets n more virtual hosts to stop. It returns false when fewer than n
// were running.
func (s Session) Stop(n int) bool { return s.retarget(n, Stopped) }

func (s Session) retarget(n int, t Target) bool {
	if n <= 0 {
		return true
	}
	for _, vh := range s.VHosts() {
		if vh.Target == t {
			continue
		}
		vh.Target = t
		n--
		if n == 0 {
			return true
		}
	}
	return false
}

func (s Session) StartAll() { s.retargetAll(Started) }

func (s Session) StopAll() { s.retargetAll(Stopped) }

func (s Session) retargetAll(t Target) {
	for _, vh := range s.VHosts() {
		vh.Target = t
	}
}

// Prepare has the cs tool install the program in dir on every host of the
// session.
func (s Session) Prepare(ctx context.Context, r Runner, dir string) error {
	return s.pipe(ctx, r, "prepare", dir)
}

// Apply has the cs tool bring the network in line with the session.
func (s Session) Apply(ctx context.Context, r Runner) error {
	return s.pipe(ctx, r, "apply")
}

func (s Session) pipe(ctx context.Context, r Runner, args ...string) error {
	b, err := s.Marshal()
	if err != nil {
		return err
	}
	return errors.Wrapf(r.Run(ctx, b, args...), "[session] - cs %s failed", args[0])
}
