package terminal

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
)

var ErrTransferFailed = errors.New("tty ownership transfer failed")

// Controller changes the owning user of terminal device nodes. The group is
// never touched.
type Controller struct {
	logger *zap.Logger
	chown  func(path string, uid, gid int) error
}

func NewController(logger *zap.Logger) *Controller {
	return &Controller{logger: logger, chown: os.Chown}
}

// Transfer makes uid the owner of the device at path.
func (c *Controller) Transfer(path string, uid int) error {
	if err := c.chown(path, uid, -1); err != nil {
		c.logger.Error("tty ownership transfer failed",
			zap.String("tty", path), zap.Int("uid", uid), zap.Error(err))
		return fmt.Errorf("%w: %s to uid %d: %v", ErrTransferFailed, path, uid, err)
	}
	c.logger.Info("tty ownership transferred", zap.String("tty", path), zap.Int("uid", uid))
	return nil
}

// Reclaim returns the device to root. It is safe to call whether or not a
// transfer happened or succeeded.
func (c *Controller) Reclaim(path string) error {
	return c.Transfer(path, 0)
}
