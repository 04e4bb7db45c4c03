package progress

// Package progress parses the line-oriented output of the gytmdl process
// into advisory progress records. Recognized markers are percentage lines,
// step counters, and stage keywords; everything else is ignored rather than
// treated as an error.
