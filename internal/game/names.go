package game

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/echo-chronicle/pkg/state"
)

// actionName is the bare type name of a, for logs.
func actionName(a state.Action) string {
	name := fmt.Sprintf("%T", a)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
