// Package memdb implements the service registry on an in-memory radix tree
// database.
package memdb

import (
	"fmt"

	memdb "github.com/hashicorp/go-memdb"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

const (
	tableServices = "services"
	indexID       = "id"
)

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		tableServices: {
			Name: tableServices,
			Indexes: map[string]*memdb.IndexSchema{
				indexID: {
					Name:    indexID,
					Unique:  true,
					Indexer: serviceIndexerByID{},
				},
			},
		},
	},
}

// serviceEntry is what the table stores. The wrapped service is never
// mutated after insertion.
type serviceEntry struct {
	*domain.Service
}

// Registry is a concurrency-safe catalog of service snapshots. Writers are
// serialised by memdb; readers see immutable snapshots.
type Registry struct {
	db  *memdb.MemDB
	log logging.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log logging.Logger) (*Registry, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry database: %w", err)
	}
	return &Registry{db: db, log: log}, nil
}

// Register inserts or replaces the snapshot of svc.
func (r *Registry) Register(svc *domain.Service) error {
	if svc == nil || svc.UUID() == "" {
		return fmt.Errorf("cannot register service without uuid")
	}

	txn := r.db.Txn(true)
	defer txn.Abort()

	if err := txn.Insert(tableServices, serviceEntry{svc.Clone()}); err != nil {
		return fmt.Errorf("failed to register service %s: %w", svc.UUID(), err)
	}
	txn.Commit()

	r.log.Debug().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "memdb").
		Str(logging.FieldEntityID, svc.UUID()).
		Str("state", svc.State.String()).
		Msg("service registered")

	return nil
}

// Get returns a copy of the service with the given UUID.
func (r *Registry) Get(serviceUUID string) (*domain.Service, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableServices, indexID, serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up service %s: %w", serviceUUID, err)
	}
	if raw == nil {
		return nil, domain.ErrServiceNotFound
	}
	return raw.(serviceEntry).Clone(), nil
}

// List returns every registered UUID in ascending order.
func (r *Registry) List() ([]string, error) {
	txn := r.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get(tableServices, indexID)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	ids := []string{}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		ids = append(ids, obj.(serviceEntry).UUID())
	}
	return ids, nil
}

// Len returns the number of registered services.
func (r *Registry) Len() int {
	ids, err := r.List()
	if err != nil {
		return 0
	}
	return len(ids)
}

type serviceIndexerByID struct{}

func (serviceIndexerByID) FromArgs(args ...any) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("must provide only a single argument")
	}
	arg, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("argument must be a string: %#v", args[0])
	}
	// null terminator keeps "a" from prefix-matching "ab"
	return []byte(arg + "\x00"), nil
}

func (serviceIndexerByID) FromObject(obj any) (bool, []byte, error) {
	e, ok := obj.(serviceEntry)
	if !ok {
		return false, nil, fmt.Errorf("unexpected type %T in services table", obj)
	}
	return true, []byte(e.UUID() + "\x00"), nil
}
