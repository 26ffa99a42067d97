package feedstore

import (
	"github.com/sakif/social-feed/internal/docstore"
	"github.com/sakif/social-feed/internal/model"
)

// Collection and index names as persisted.
const (
	PostsCollection = "posts"
	UsersCollection = "users"

	TimestampIndex = "timestamp"
	EmailIndex     = "email"
)

// SchemaVersion is bumped whenever a collection or index is added below.
const SchemaVersion = 1

// Schema is the persisted layout: posts keyed by id and indexed by
// timestamp, users keyed by id with a unique email index.
var Schema = docstore.Schema{
	Version: SchemaVersion,
	Collections: []docstore.CollectionSpec{
		{
			Name:    PostsCollection,
			Indexes: []docstore.IndexSpec{{Name: TimestampIndex}},
		},
		{
			Name:    UsersCollection,
			Indexes: []docstore.IndexSpec{{Name: EmailIndex, Unique: true}},
		},
	},
}

var postCodec = docstore.Codec[model.Post]{
	Key: func(p model.Post) string { return p.ID },
	Indexes: map[string]func(model.Post) any{
		TimestampIndex: func(p model.Post) any { return p.Timestamp },
	},
}

var userCodec = docstore.Codec[model.User]{
	Key: func(u model.User) string { return u.ID },
	Indexes: map[string]func(model.User) any{
		EmailIndex: func(u model.User) any { return u.Email },
	},
}
