// Package service contains the tracker's use cases: turning a raw request
// body into a validated item, resolving its cart identity, handing it to the
// deferred dispatcher, and, on the worker side, writing it to the store.
//
// Key components:
//
// 1. Intake (request side):
//   - ParseItem validates the payload and the cart cookie in a fixed order
//   - AssignCart resolves or mints the cart identity
//   - IntakeService composes both with a task.Dispatcher
//
// 2. Persistence (worker side):
//   - ItemPersister inserts the cart (when new) and the item in one transaction
//
// 3. Error Handling:
//   - Client input problems are sentinel errors mapped to HTTP only in internal/api
//   - Storage failures are wrapped in ServiceError and keep their store sentinels
package service
