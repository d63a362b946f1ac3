package directors

import (
	"fmt"

	"mockmongo/src/helpers"
	"mockmongo/src/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// Command is a normalized administrative command: its name, its argument and
// any further options of an ordered command document.
type Command struct {
	Name     string
	Argument interface{}
	Options  bson.D
}

// CommandHandler runs one administrative command against a database.
type CommandHandler func(db *Database, cmd Command) (models.CommandResponse, error)

// CommandDirector dispatches commands through a fixed table of handlers.
// Names missing from the table are rejected as unsupported.
type CommandDirector struct {
	handlers map[string]CommandHandler
	logger   *zap.SugaredLogger
}

// NewCommandDirector returns a director knowing the built-in commands.
func NewCommandDirector(logger *zap.SugaredLogger) *CommandDirector {
	return &CommandDirector{
		handlers: map[string]CommandHandler{
			"ping": pingCommand,
		},
		logger: helpers.LoggerOrNop(logger),
	}
}

func pingCommand(_ *Database, _ Command) (models.CommandResponse, error) {
	return models.OkResponse(), nil
}

// Has reports whether a handler is registered for name.
func (d *CommandDirector) Has(name string) bool {
	_, exists := d.handlers[name]
	return exists
}

// Execute normalizes cmd and runs its handler.
func (d *CommandDirector) Execute(db *Database, cmd interface{}) (models.CommandResponse, error) {
	command, err := NormalizeCommand(cmd)
	if err != nil {
		return nil, err
	}

	handler, exists := d.handlers[command.Name]
	if !exists {
		return nil, models.Unsupported("command %q is not implemented", command.Name)
	}

	d.logger.Debugf("Running command '%s' on database '%s'", command.Name, db.Name())
	return handler(db, command)
}

// NormalizeCommand turns a command name, a single-key bson.M (or plain map)
// or an ordered bson.D into a Command. A bare name is sugar for {name: 1};
// in a bson.D the first element names the command and the rest are its
// options.
func NormalizeCommand(cmd interface{}) (Command, error) {
	switch c := cmd.(type) {
	case string:
		if c == "" {
			return Command{}, fmt.Errorf("%w: command name cannot be empty", models.ErrInvalidArgumentValue)
		}
		return Command{Name: c, Argument: int32(1)}, nil
	case map[string]interface{}:
		return NormalizeCommand(bson.M(c))
	case bson.M:
		if len(c) != 1 {
			return Command{}, fmt.Errorf("%w: command document must have exactly one key, got %d; use bson.D for commands with options",
				models.ErrInvalidArgumentValue, len(c))
		}
		for name, arg := range c {
			return Command{Name: name, Argument: arg}, nil
		}
	case bson.D:
		if len(c) == 0 {
			return Command{}, fmt.Errorf("%w: command document cannot be empty", models.ErrInvalidArgumentValue)
		}
		return Command{Name: c[0].Key, Argument: c[0].Value, Options: c[1:]}, nil
	}
	return Command{}, fmt.Errorf("%w: command must be a string, bson.M or bson.D, not %T", models.ErrInvalidArgumentType, cmd)
}
