package domain

// KeyPrefix namespaces the service's own keys in the shared key-value store.
const KeyPrefix = "funderdex:"
