// Package model defines the relational schema of CMS: contests, users and
// their participations, tasks and datasets, submissions, user tests and print
// jobs, together with the write-time checks on identifiers and digests.
//
// Relationships are declared with gorm tags. Collections a query did not
// preload are nil; the query package guarantees preloaded ones are non-nil.
package model

// Version is the schema version. Bump it on every structural change to the
// entities of this package; a database stamped with a different version is
// refused.
const Version = 35

// Models returns one zero value of every entity, in an order where each
// entity follows the ones it references (the Task/Dataset cycle aside).
func Models() []interface{} {
	return []interface{}{
		&Admin{},
		&Contest{},
		&Announcement{},
		&User{},
		&Team{},
		&Participation{},
		&Message{},
		&Question{},
		&Task{},
		&Statement{},
		&Attachment{},
		&Dataset{},
		&Manager{},
		&Testcase{},
		&Submission{},
		&File{},
		&Token{},
		&SubmissionResult{},
		&Executable{},
		&Evaluation{},
		&UserTest{},
		&UserTestFile{},
		&UserTestManager{},
		&UserTestResult{},
		&UserTestExecutable{},
		&PrintJob{},
	}
}
