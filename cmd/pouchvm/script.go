package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/pouchvm/dispatch"
	"github.com/sarchlab/pouchvm/gamestruct"
	"github.com/sarchlab/pouchvm/proxy"
	"github.com/sarchlab/pouchvm/view"
)

// runLine interprets one line of the CLI's minimal internal command
// vocabulary and applies it through the session's Dispatcher. This is
// deliberately not the script grammar spec.md §1 excludes from scope — it
// is just enough of an internal format for this CLI's own run/repl
// subcommands and tests to drive a Dispatcher without a parser package.
func (s *session) runLine(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	var result dispatch.Result
	switch cmd {
	case "get":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: get <actor> [count]")
		}
		count := 1
		if len(args) >= 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "", err
			}
			count = n
		}
		actor, err := s.resolveActor(args[0])
		if err != nil {
			return "", err
		}
		name, err := s.internName(actor)
		if err != nil {
			return "", err
		}
		result = s.dispatcher.Get(gamestruct.PouchItem{Name: name}, count)

	case "drop", "sell":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: %s <actor> [amount]", cmd)
		}
		spec, err := s.selectSpec(args)
		if err != nil {
			return "", err
		}
		if cmd == "drop" {
			result = s.dispatcher.Drop(spec)
		} else {
			result = s.dispatcher.Sell(spec)
		}

	case "hold":
		result = s.dispatcher.Hold()
	case "unhold":
		result = s.dispatcher.Unhold()
	case "entangle":
		result = s.dispatcher.Entangle()

	case "trash":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: trash <tab> <slot>")
		}
		tab, err := strconv.Atoi(args[0])
		if err != nil {
			return "", err
		}
		slot, err := strconv.Atoi(args[1])
		if err != nil {
			return "", err
		}
		result = s.dispatcher.Trash(tab, slot)

	case "sort":
		if len(args) < 1 {
			return "", fmt.Errorf("usage: sort <category> [times] [accurate|inaccurate]")
		}
		cat, err := categoryFor(args[0])
		if err != nil {
			return "", err
		}
		times := 0
		accurate := true
		if len(args) >= 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return "", err
			}
			times = n
		}
		if len(args) >= 3 {
			accurate = args[2] == "accurate"
		}
		result = s.dispatcher.Sort(cat, times, accurate, false)

	case "save":
		name := ""
		if len(args) >= 1 {
			name = args[0]
		}
		result = s.dispatcher.Save(name, s.gdt)

	case "reload":
		name := ""
		if len(args) >= 1 {
			name = args[0]
		}
		obj, res := s.dispatcher.Reload(name)
		if res.Err == nil {
			if g, ok := obj.(*proxy.Gdt); ok {
				s.gdt = g
			}
		}
		result = res

	case "inspect":
		return s.inspectOutput()

	case "export":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: export <file>")
		}
		return "", s.exportGdt(args[0])

	case "import":
		if len(args) != 1 {
			return "", fmt.Errorf("usage: import <file>")
		}
		return "", s.importGdt(args[0])

	default:
		return "", fmt.Errorf("unknown command %q", cmd)
	}

	s.recordStep(line, result)
	if result.Err != nil {
		return "", result.Err
	}
	return result.Warning, nil
}

func (s *session) recordStep(command string, result dispatch.Result) {
	pouch, err := view.Pouch(s.dispatcher.Pouch, s.dispatcher.State.Game)
	if err != nil {
		s.recorder.Record(command, view.PouchList{}, view.OverworldView{}, result.Warning, err)
		return
	}
	over, err := view.Overworld(s.dispatcher.State, s.dispatcher.State.Game)
	if err != nil {
		s.recorder.Record(command, pouch, view.OverworldView{}, result.Warning, err)
		return
	}
	s.recorder.Record(command, pouch, over, result.Warning, result.Err)
}

func (s *session) inspectOutput() (string, error) {
	pouch, err := view.Pouch(s.dispatcher.Pouch, s.dispatcher.State.Game)
	if err != nil {
		return "", err
	}
	return view.RenderPouchTable(pouch), nil
}

// exportGdt writes the session's current GDT proxy to path as YAML, so a
// save survives past the process's lifetime rather than only living in
// simstate.State's in-memory Saves map.
func (s *session) exportGdt(path string) error {
	data, err := s.gdt.ToYAML()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// importGdt reads a previously exported YAML GDT snapshot from path and
// installs it as the session's live GDT, replacing it in the proxy store.
func (s *session) importGdt(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	g, err := proxy.GdtFromYAML(data)
	if err != nil {
		return err
	}
	s.proxyStore.Set(s.gdtID, g)
	s.gdt = g
	return nil
}

func (s *session) resolveActor(id string) (string, error) {
	res, err := s.resolver.Resolve(id)
	if err != nil {
		return id, nil // unknown identifiers pass through as literal actor names
	}
	return res.Actor, nil
}

func (s *session) selectSpec(args []string) (dispatch.ItemSelectSpec, error) {
	actor, err := s.resolveActor(args[0])
	if err != nil {
		return dispatch.ItemSelectSpec{}, err
	}
	amount := 1
	if len(args) >= 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return dispatch.ItemSelectSpec{}, err
		}
		amount = n
	}
	return dispatch.ItemSelectSpec{Actor: actor, Amount: amount}, nil
}

func categoryFor(s string) (gamestruct.ItemType, error) {
	switch strings.ToLower(s) {
	case "sword":
		return gamestruct.ItemSword, nil
	case "bow":
		return gamestruct.ItemBow, nil
	case "arrow":
		return gamestruct.ItemArrow, nil
	case "shield":
		return gamestruct.ItemShield, nil
	case "armor":
		return gamestruct.ItemArmor, nil
	case "material":
		return gamestruct.ItemMaterial, nil
	case "food":
		return gamestruct.ItemFood, nil
	case "key-item":
		return gamestruct.ItemKeyItem, nil
	default:
		return 0, fmt.Errorf("unknown category %q", s)
	}
}
