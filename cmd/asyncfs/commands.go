package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/brettbedarf/asyncfs/internal/util"
	"github.com/brettbedarf/asyncfs/watcher"
	"github.com/spf13/cobra"
)

const copyChunk = 64 * 1024

// session collects the first error of a chain of callbacks.
type session struct {
	err error
}

func (s *session) fail(err error) bool {
	if err == nil {
		return false
	}
	if s.err == nil {
		s.err = err
	}
	return true
}

// run submits start, drives the loop and reports the first error.
func (a *app) run(ctx context.Context, start func(s *session) error) error {
	s := &session{}
	if err := start(s); err != nil {
		return err
	}
	if err := a.fs.Run(ctx); err != nil {
		return err
	}
	return s.err
}

func newStatCmd(a *app) *cobra.Command {
	var noFollow bool
	c := &cobra.Command{
		Use:   "stat PATH",
		Short: "Print file attributes as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := a.fs.Stat
			if noFollow {
				op = a.fs.Lstat
			}
			return a.run(cmd.Context(), func(s *session) error {
				_, err := op(args[0], func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					s.fail(enc.Encode(out.Stat))
				})
				return err
			})
		},
	}
	c.Flags().BoolVarP(&noFollow, "no-dereference", "L", false, "Describe a symlink itself")
	return c
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls DIR",
		Short: "List directory entries in OS order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Scandir(args[0], func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					for _, e := range out.Entries {
						fmt.Fprintf(a.out, "%-7s %s\n", e.Type, e.Name)
					}
				})
				return err
			})
		},
	}
}

func newCatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat FILE",
		Short: "Write a file to standard output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Open(args[0], "r", 0, func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					a.readAll(s, int(out.N), 0)
				})
				return err
			})
		},
	}
}

// readAll streams fd to the output chunk by chunk, then closes it.
func (a *app) readAll(s *session, fd int, offset int64) {
	_, err := a.fs.Read(fd, offset, copyChunk, func(out *asyncfs.Outcome, err error) {
		if s.fail(err) || out.N == 0 {
			a.closeFd(s, fd)
			return
		}
		if _, err := a.out.Write(out.Data); s.fail(err) {
			a.closeFd(s, fd)
			return
		}
		a.readAll(s, fd, offset+out.N)
	})
	if s.fail(err) {
		a.closeFd(s, fd)
	}
}

func (a *app) closeFd(s *session, fd int) {
	_, err := a.fs.Close(fd, func(_ *asyncfs.Outcome, err error) { s.fail(err) })
	s.fail(err)
}

func newCpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cp SRC DST",
		Short: "Copy a file with sendfile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, dst := args[0], args[1]
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Open(src, "r", 0, func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					in := int(out.N)
					_, err = a.fs.Fstat(in, func(out *asyncfs.Outcome, err error) {
						if s.fail(err) {
							a.closeFd(s, in)
							return
						}
						a.copyTo(s, in, dst, out.Stat)
					})
					if s.fail(err) {
						a.closeFd(s, in)
					}
				})
				return err
			})
		},
	}
}

func (a *app) copyTo(s *session, in int, dst string, st *asyncfs.Stat) {
	_, err := a.fs.Open(dst, "w", int(st.Perm()), func(out *asyncfs.Outcome, err error) {
		if s.fail(err) {
			a.closeFd(s, in)
			return
		}
		outFd := int(out.N)
		a.sendAll(s, outFd, in, 0, st.Size)
	})
	if s.fail(err) {
		a.closeFd(s, in)
	}
}

func (a *app) sendAll(s *session, out, in int, offset, size int64) {
	done := func() {
		a.closeFd(s, in)
		a.closeFd(s, out)
	}
	if offset >= size {
		done()
		return
	}
	_, err := a.fs.Sendfile(out, in, offset, int(min(size-offset, copyChunk)), func(res *asyncfs.Outcome, err error) {
		if s.fail(err) || res.N == 0 {
			done()
			return
		}
		a.sendAll(s, out, in, offset+res.N, size)
	})
	if s.fail(err) {
		done()
	}
}

func newMkdirCmd(a *app) *cobra.Command {
	var mode string
	c := &cobra.Command{
		Use:   "mkdir DIR",
		Short: "Create a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Mkdir(args[0], mode, func(_ *asyncfs.Outcome, err error) { s.fail(err) })
				return err
			})
		},
	}
	c.Flags().StringVarP(&mode, "mode", "m", "0755", "Octal permission bits")
	return c
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm PATH",
		Short: "Remove a file or an empty directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Lstat(path, func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					remove := a.fs.Unlink
					if out.Stat.IsDirectory {
						remove = a.fs.Rmdir
					}
					_, err = remove(path, func(_ *asyncfs.Outcome, err error) { s.fail(err) })
					s.fail(err)
				})
				return err
			})
		},
	}
}

func newMvCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mv SRC DST",
		Short: "Rename a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Rename(args[0], args[1], func(_ *asyncfs.Outcome, err error) { s.fail(err) })
				return err
			})
		},
	}
}

func newChmodCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chmod MODE PATH",
		Short: "Change permission bits; MODE is octal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Chmod(args[1], args[0], func(_ *asyncfs.Outcome, err error) { s.fail(err) })
				return err
			})
		},
	}
}

func newLnCmd(a *app) *cobra.Command {
	var symbolic bool
	c := &cobra.Command{
		Use:   "ln TARGET LINK",
		Short: "Create a hard or symbolic link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				cb := func(_ *asyncfs.Outcome, err error) { s.fail(err) }
				var err error
				if symbolic {
					_, err = a.fs.Symlink(args[0], args[1], "", cb)
				} else {
					_, err = a.fs.Link(args[0], args[1], cb)
				}
				return err
			})
		},
	}
	c.Flags().BoolVarP(&symbolic, "symbolic", "s", false, "Create a symbolic link")
	return c
}

func newReadlinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "readlink LINK",
		Short: "Print a symbolic link's target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Readlink(args[0], func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					fmt.Fprintln(a.out, out.Target)
				})
				return err
			})
		},
	}
}

func newTouchCmd(a *app) *cobra.Command {
	var stamp string
	c := &cobra.Command{
		Use:   "touch FILE",
		Short: "Create a file or update its timestamps",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			when := float64(time.Now().UnixNano()) / 1e9
			if stamp != "" {
				v, err := strconv.ParseFloat(stamp, 64)
				if err != nil {
					return &asyncfs.InputError{Op: "touch", Arg: "time", Value: stamp, Reason: "not a number of seconds"}
				}
				when = v
			}
			return a.run(cmd.Context(), func(s *session) error {
				_, err := a.fs.Open(args[0], "a", 0o644, func(out *asyncfs.Outcome, err error) {
					if s.fail(err) {
						return
					}
					fd := int(out.N)
					_, err = a.fs.Futime(fd, when, when, func(_ *asyncfs.Outcome, err error) {
						s.fail(err)
						a.closeFd(s, fd)
					})
					if s.fail(err) {
						a.closeFd(s, fd)
					}
				})
				return err
			})
		},
	}
	c.Flags().StringVarP(&stamp, "time", "t", "", "Timestamp in seconds since the epoch")
	return c
}

func newWatchCmd(a *app) *cobra.Command {
	var count int
	c := &cobra.Command{
		Use:   "watch PATH",
		Short: "Print change events until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := util.GetLogger("main.watch")
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var (
				seen    int
				lastErr error
				w       *watcher.Watcher
			)
			w, err := a.fs.Watch(args[0], func(ev watcher.Event, err error) {
				if err != nil {
					lastErr = err
					w.Close()
					return
				}
				fmt.Fprintf(a.out, "%s\t%s\n", ev.Kind, ev.Filename)
				seen++
				if count > 0 && seen >= count {
					w.Close()
				}
			})
			if err != nil {
				return err
			}
			defer w.Close()
			logger.Info().Str("watcher", w.ID()).Str("path", w.Path()).Msg("Watching")

			if err := a.fs.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return lastErr
		},
	}
	c.Flags().IntVarP(&count, "count", "n", 0, "Exit after this many events; 0 runs until interrupted")
	return c
}
