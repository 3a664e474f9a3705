package service

import (
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Viewer resolves the policy viewer of the given user.
// Capabilities are the union of the user's and its groups' ones, a superuser holds them all.
// A nil or inactive user is anonymous.
func Viewer(db database.GroupInteraction, log logrus.FieldLogger, user *model.User) (policy.Viewer, error) {
	if user == nil || !user.IsActive {
		return policy.Anonymous(), nil
	}

	if user.IsSuperuser {
		return policy.NewViewer(user.ID, policy.Capabilities()...), nil
	}

	names := append([]string(nil), user.Capabilities...)

	groups, err := db.FindGroups(user.Groups)
	if err != nil {
		return policy.Anonymous(), errors.Wrap(err, "could not resolve user groups")
	}
	for _, g := range groups {
		names = append(names, g.Capabilities...)
	}

	var caps []policy.Capability
	for _, name := range names {
		c, err := policy.ParseCapability(name)
		if err != nil {
			log.WithField("user", user.ID).WithError(err).Warn("ignoring stored capability")
			continue
		}
		caps = append(caps, c)
	}

	return policy.NewViewer(user.ID, caps...), nil
}
