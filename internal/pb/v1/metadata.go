package pb

// ActorMetadataKey is the request metadata key carrying the caller identity.
const ActorMetadataKey = "x-actor-id"
