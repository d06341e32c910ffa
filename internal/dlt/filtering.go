package dlt

// FilterConfig selects which messages an indexing run keeps. Zero values
// mean "no restriction".
type FilterConfig struct {
	// MinLogLevel drops log messages more verbose than this level.
	MinLogLevel LogLevel
	// AppIDs, ContextIDs and EcuIDs restrict messages to the listed ids.
	AppIDs     []string
	ContextIDs []string
	EcuIDs     []string
}

// ProcessedFilterConfig is a FilterConfig prepared for per-message lookup.
type ProcessedFilterConfig struct {
	minLogLevel LogLevel
	appIDs      map[string]struct{}
	contextIDs  map[string]struct{}
	ecuIDs      map[string]struct{}
}

// ProcessFilterConfig converts a FilterConfig into its lookup form. A nil
// config yields nil.
func ProcessFilterConfig(cfg *FilterConfig) *ProcessedFilterConfig {
	if cfg == nil {
		return nil
	}
	return &ProcessedFilterConfig{
		minLogLevel: cfg.MinLogLevel,
		appIDs:      toSet(cfg.AppIDs),
		contextIDs:  toSet(cfg.ContextIDs),
		ecuIDs:      toSet(cfg.EcuIDs),
	}
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (c *ProcessedFilterConfig) matches(m *Message) bool {
	if c.minLogLevel != 0 {
		if level, ok := levelOf(m); ok && level > c.minLogLevel {
			return false
		}
	}
	if c.appIDs != nil {
		if m.Extended == nil {
			return false
		}
		if _, ok := c.appIDs[m.Extended.AppID]; !ok {
			return false
		}
	}
	if c.contextIDs != nil {
		if m.Extended == nil {
			return false
		}
		if _, ok := c.contextIDs[m.Extended.ContextID]; !ok {
			return false
		}
	}
	if c.ecuIDs != nil {
		if _, ok := c.ecuIDs[m.EcuID()]; !ok {
			return false
		}
	}
	return true
}

func levelOf(m *Message) (LogLevel, bool) {
	if m.Extended == nil {
		return 0, false
	}
	return m.Extended.LogLevel()
}
