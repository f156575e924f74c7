package driven

import "github.com/ericfisherdev/containerproxy/internal/domain/model"

// ChangeNotifier receives an event after every persisted mutation.
// Publish must not block the caller.
type ChangeNotifier interface {
	Publish(event model.ChangeEvent)
}
