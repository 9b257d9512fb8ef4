package service

// User facing messages. The page renders them verbatim.
const (
	MsgSubmitSuccess    = "ส่งข้อมูลสำเร็จ!"
	MsgSubmitFailure    = "เกิดข้อผิดพลาดในการส่งข้อมูล"
	MsgWrongPassword    = "รหัสผ่านไม่ถูกต้อง"
	MsgStudentNotFound  = "ไม่พบรายชื่อนักเรียน"
	MsgMemberLimit      = "เพิ่มสมาชิกได้สูงสุด 5 คน"
	MsgDuplicateMember  = "รายชื่อนี้ถูกเพิ่มไปแล้ว"
	MsgMemberIndex      = "ไม่พบสมาชิกลำดับนี้"
	MsgInvalidLevel     = "ระดับชั้นต้องเป็น ปวช. หรือ ปวส."
	MsgInvalidYear      = "ชั้นปีไม่ถูกต้องสำหรับระดับชั้นนี้"
	MsgInvalidRoom      = "ห้องเรียนไม่ถูกต้อง"
	MsgFileTooLarge     = "ขนาดไฟล์ต้องไม่เกิน %dMB"
	MsgFileType         = "ไม่รองรับไฟล์ประเภทนี้"
	MsgFileRead         = "ไม่สามารถอ่านไฟล์ได้"
	MsgFileRequired     = "กรุณาเลือกไฟล์"
	MsgGradeSaved       = "บันทึกคะแนนเรียบร้อย"
	MsgGradeSaveFailed  = "เกิดข้อผิดพลาดในการบันทึก"
	MsgGradeErrorPrefix = "เกิดข้อผิดพลาด: "
)
