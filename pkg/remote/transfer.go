package remote

import (
	"context"
	"io"
	"os"

	"github.com/pricewatch/opsctl/pkg/errors"

	"github.com/pkg/sftp"
)

// Upload copies a local file to remotePath over an SFTP subsystem on the
// existing connection, then tightens its permissions to mode. The
// permission change happens after the write so the file never lingers
// wide-open even briefly with a looser creation mask.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string, mode os.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return errors.NewTransferError("failed to open local file", err).WithContext("path", localPath)
	}
	defer src.Close()

	sftpClient, err := sftp.NewClient(c.conn)
	if err != nil {
		return errors.NewTransferError("failed to open SFTP subsystem", err)
	}
	defer sftpClient.Close()

	dst, err := sftpClient.Create(remotePath)
	if err != nil {
		return errors.NewTransferError("failed to create remote file", err).WithContext("path", remotePath)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return errors.NewTransferError("failed to copy file contents", err).WithContext("path", remotePath)
	}
	if err := dst.Close(); err != nil {
		return errors.NewTransferError("failed to finalize remote file", err).WithContext("path", remotePath)
	}

	if err := sftpClient.Chmod(remotePath, mode); err != nil {
		return errors.NewTransferError("failed to restrict remote file permissions", err).WithContext("path", remotePath).WithContext("mode", mode.String())
	}

	c.logger.Infof("Uploaded %s -> %s (%s)", localPath, remotePath, mode)
	return nil
}
