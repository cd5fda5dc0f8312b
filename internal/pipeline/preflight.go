package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/internal/gitfetch"
	"github.com/streamforge/winstaller/internal/icon"
	"github.com/streamforge/winstaller/internal/installer"
	"github.com/streamforge/winstaller/internal/pkgdir"
	"github.com/streamforge/winstaller/internal/wheels"
)

// tools bundles the external-tool wrappers one run needs. All of them are
// resolved up front so missing tools surface before any side effect.
type tools struct {
	git    *gitfetch.Fetcher
	pip    *pkgdir.Packager
	wheels *wheels.Downloader
	icons  *icon.Generator
	nsist  *installer.Builder
}

// CheckEnvironment refuses to run outside CI or an activated virtual
// environment. Installing packages into an unisolated interpreter would
// pollute it.
func CheckEnvironment() error {
	if os.Getenv("CI") != "" || os.Getenv("VIRTUAL_ENV") != "" {
		return nil
	}
	return fmt.Errorf("refusing to run outside CI or a virtual environment (set CI or activate a venv)")
}

// preflight resolves every external tool and reports all missing ones
// together.
func preflight(logger hclog.Logger) (*tools, error) {
	t := &tools{}
	var missing []string

	var err error
	if t.git, err = gitfetch.NewFetcher(logger.Named("git")); err != nil {
		missing = append(missing, err.Error())
	}
	if t.pip, err = pkgdir.NewPackager(logger.Named("pip")); err != nil {
		missing = append(missing, err.Error())
	}
	if t.wheels, err = wheels.NewDownloader(logger.Named("wheels")); err != nil {
		missing = append(missing, err.Error())
	}
	if t.icons, err = icon.NewGenerator(logger.Named("icon")); err != nil {
		missing = append(missing, err.Error())
	}
	if t.nsist, err = installer.NewBuilder(logger.Named("pynsist")); err != nil {
		missing = append(missing, err.Error())
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required tools:\n  %s", strings.Join(missing, "\n  "))
	}
	return t, nil
}
