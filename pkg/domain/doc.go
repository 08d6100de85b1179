/*
Package domain contains the core vocabulary shared by the session store and its
persistence adapters.

It holds the error taxonomy and the persisted record shape. This package is kept
pure and free of external dependencies like I/O or persistence, following
Hexagonal Architecture principles.

# Key Entities

  - Record: the backend-stored envelope of a session (payload + last activity).
  - Errors: sentinel values callers match with errors.Is.
*/
package domain
