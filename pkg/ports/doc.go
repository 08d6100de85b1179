/*
Package ports defines the driven ports (interfaces) of the session store.

These interfaces decouple the session lifecycle from external implementations,
allowing the store to work with various storage backends and lock services.

# Key Interfaces

  - Handler: persists a session payload by ID and sweeps expired ones.
  - RecordStore: the key/value medium the default handler is built on.
  - DistributedLocker: coordinates garbage collection across replicas.

The package also ships reusable contract suites (RunRecordStoreContract,
RunHandlerContract) that adapters run from their own tests.
*/
package ports
