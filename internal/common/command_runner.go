package common

import (
	"context"

	"resumatch/internal/errors"
)

// FileOperationFunc turns one input document into a formattable result.
type FileOperationFunc[Output any] func(ctx context.Context, filename string, data []byte) (Output, error)

// FileCommand describes a document-based CLI command.
type FileCommand struct {
	Config      CommandConfig
	Supported   []string
	MaxFileSize int64
}

// RunFileCommand encapsulates the common logic for document-based CLI
// commands: validate and read the input, run the operation, write output.
func RunFileCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmd FileCommand,
	filename string,
	operation FileOperationFunc[Output],
) error {
	fileProcessor := NewFileProcessor(logger, cmd.MaxFileSize)
	outputHandler := NewOutputHandler(logger)

	data, err := fileProcessor.ValidateAndReadFile(filename, cmd.Supported)
	if err != nil {
		return err
	}

	logger.Debug("Processing document",
		"filename", filename,
		"size", len(data),
		"format", cmd.Config.OutputFormat)

	result, err := operation(ctx, filename, data)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmd.Config)
}
