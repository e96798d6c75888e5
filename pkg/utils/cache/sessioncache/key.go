package sessioncache

import "fmt"

func (k Key) String() string {
	return fmt.Sprintf("%d_%s_%s_%s", k.Year, k.Event, k.SessionType, k.Flags)
}
