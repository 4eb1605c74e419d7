package main

import (
	"context"
	"io"

	"pkt.systems/glkbridge/core"
	"pkt.systems/glkbridge/internal/appconfig"
	"pkt.systems/glkbridge/internal/interp"
	"pkt.systems/glkbridge/internal/play"
	"pkt.systems/glkbridge/schema"
	"pkt.systems/glkbridge/sshserver"
	"pkt.systems/pslog"
)

// runtime bundles what every front end needs to start sessions.
type runtime struct {
	cfg      appconfig.Config
	launcher *interp.Launcher
	registry *core.Registry
	stories  []schema.Story
}

func loadRuntime(ctx context.Context, cfgPath string) (*runtime, error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	launcher, err := interp.NewLauncher(cfg.Interpreters)
	if err != nil {
		return nil, err
	}
	stories := make([]schema.Story, 0, len(cfg.Stories))
	for _, story := range cfg.Stories {
		interpreter, _ := cfg.StoryInterpreter(story)
		stories = append(stories, schema.Story{
			Name:        schema.StoryName(story.Name),
			File:        story.File,
			Interpreter: schema.InterpreterName(interpreter.Name),
		})
	}
	pslog.Ctx(ctx).Debug("config loaded", "interpreters", len(cfg.Interpreters), "stories", len(stories), "save_dir", cfg.SaveDir)
	return &runtime{
		cfg:      cfg,
		launcher: launcher,
		registry: core.NewRegistry(launcher, pslog.Ctx(ctx)),
		stories:  stories,
	}, nil
}

func (rt *runtime) newSession(id schema.SessionID, out io.Writer, story schema.StoryName) (*play.Session, error) {
	if story == "" {
		story = schema.StoryName(rt.cfg.DefaultStory)
	}
	return play.NewSession(rt.registry, rt.launcher, out, play.Config{
		SessionID:    id,
		Stories:      rt.stories,
		DefaultStory: story,
		SaveDir:      rt.cfg.SaveDir,
	})
}

func (rt *runtime) sessionFactory() sshserver.SessionFactory {
	return sshserver.SessionFactoryFunc(func(_ context.Context, id schema.SessionID, out io.Writer) (sshserver.Session, error) {
		session, err := rt.newSession(id, out, "")
		if err != nil {
			return nil, err
		}
		return session, nil
	})
}

func (rt *runtime) close() {
	rt.registry.CloseAll()
}
