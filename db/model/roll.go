package model

// Roll is one finished roll batch
type Roll struct {
	Id        int64
	RollId    string `xorm:"not null unique VARCHAR(36) default ''"`
	Notation  string `xorm:"not null VARCHAR(255) default ''"`
	Source    string `xorm:"not null VARCHAR(16) default ''"`
	Modifier  int    `xorm:"not null INT(11) default 0"`
	Total     int    `xorm:"not null INT(11) default 0"`
	Cleared   bool   `xorm:"not null BOOL default 0"`
	DiceCount int    `xorm:"not null INT(11) default 0"`
	CreatedAt int64  `xorm:"not null index BIGINT(20) default 0"`
}

// RollDie is one slot of a roll, Seq keeps submission order
type RollDie struct {
	Id         int64
	RollId     string `xorm:"not null index VARCHAR(36) default ''"`
	Seq        int    `xorm:"not null INT(11) default 0"`
	DieId      int64  `xorm:"not null BIGINT(20) default 0"`
	GroupId    int    `xorm:"not null INT(11) default 0"`
	DieType    string `xorm:"not null VARCHAR(8) default ''"`
	Sides      int    `xorm:"not null INT(11) default 0"`
	Theme      string `xorm:"not null VARCHAR(64) default ''"`
	ThemeColor string `xorm:"not null VARCHAR(32) default ''"`
	Value      int    `xorm:"not null INT(11) default 0"`
	HasValue   bool   `xorm:"not null BOOL default 0"`
	Outcome    string `xorm:"not null VARCHAR(16) default ''"`
	Error      string `xorm:"not null VARCHAR(255) default ''"`
}
