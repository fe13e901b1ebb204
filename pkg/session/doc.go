// Package session owns capture sessions: one bounded photo-collection period
// per customer.
//
// A [Manager] creates a uniquely named session directory, copies every file
// the capture watcher accepts into it as "NN_<name>" and keeps a session.json
// manifest plus a latest.txt pointer up to date. The watch directory itself is
// never modified.
//
// Only one session collects at a time. Starting a new session closes the
// previous one and invalidates every [Baseline] taken for it, so files that
// arrive late for an old session are not attributed to the new one.
//
// # Basic Usage
//
//	m := session.NewManager(watcher, fs.NewSessionStore(root, nil))
//	s, err := m.Start(ctx, 4)
//	if err != nil {
//	    return err
//	}
//	report, err := m.Shoot(ctx, session.ShootPlan{
//	    Trigger:  trigger,
//	    PerShot:  8 * time.Second,
//	    Deadline: 60 * time.Second,
//	})
package session
